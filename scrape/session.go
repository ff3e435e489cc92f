package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/itemscope/config"
	"github.com/use-agent/itemscope/models"
)

// launchFuture represents one in-flight browser launch. Callers that
// arrive while a launch is running wait on done and share the result.
type launchFuture struct {
	done    chan struct{}
	browser *rod.Browser
	err     error
}

// SessionManager owns the shared headless browser. The browser launches
// lazily on first Acquire, concurrent acquirers share a single launch,
// and a disconnect observer clears the cached instance so the next
// Acquire relaunches. When a proxy template is configured, the session
// is also rotated after RotateInterval by expanding a fresh {session}
// value into the proxy URL.
type SessionManager struct {
	cfg config.BrowserConfig

	mu         sync.Mutex
	browser    *rod.Browser
	inflight   *launchFuture
	launchedAt time.Time
	closed     bool

	// injectable for tests; defaults launch a real browser.
	launch  func(proxy string) (*rod.Browser, error)
	observe func(b *rod.Browser, onGone func())
}

// NewSessionManager builds a manager; no browser is launched until the
// first Acquire (or Warmup).
func NewSessionManager(cfg config.BrowserConfig) *SessionManager {
	m := &SessionManager{cfg: cfg}
	m.launch = m.launchBrowser
	m.observe = observeDisconnect
	return m
}

// Acquire returns the shared browser, launching it if needed. All
// concurrent callers during a launch receive the same instance or the
// same error. A stale proxied session, or any session when forceRelaunch
// is set, is discarded before relaunch.
func (m *SessionManager) Acquire(ctx context.Context, forceRelaunch bool) (*rod.Browser, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, models.NewScrapeError(models.ErrCodeSession, "session manager is closed", nil)
	}
	if m.browser != nil && (forceRelaunch || m.stale()) {
		slog.Info("discarding browser session",
			"forced", forceRelaunch,
			"age", time.Since(m.launchedAt).Round(time.Second))
		old := m.browser
		m.browser = nil
		go func() { _ = old.Close() }()
	}
	if m.browser != nil {
		b := m.browser
		m.mu.Unlock()
		return b, nil
	}

	if m.inflight == nil {
		fut := &launchFuture{done: make(chan struct{})}
		m.inflight = fut
		go m.runLaunch(fut)
	}
	fut := m.inflight
	m.mu.Unlock()

	select {
	case <-fut.done:
	case <-ctx.Done():
		return nil, models.NewScrapeError(models.ErrCodeSession, "browser launch interrupted", ctx.Err())
	}
	if fut.err != nil {
		return nil, models.NewScrapeError(models.ErrCodeSession, "browser launch failed", fut.err)
	}
	return fut.browser, nil
}

// runLaunch performs the launch for one future and publishes the result.
func (m *SessionManager) runLaunch(fut *launchFuture) {
	proxy := expandProxySession(m.cfg.Proxy)
	browser, err := m.launch(proxy)

	m.mu.Lock()
	if err == nil {
		m.browser = browser
		m.launchedAt = time.Now()
		m.observe(browser, m.forget(browser))
	}
	m.inflight = nil
	m.mu.Unlock()

	fut.browser = browser
	fut.err = err
	close(fut.done)
}

// forget returns a callback that drops b from the cache if it is still
// the current instance. Used by the disconnect observer.
func (m *SessionManager) forget(b *rod.Browser) func() {
	return func() {
		m.mu.Lock()
		if m.browser == b {
			slog.Warn("browser disconnected, session cleared")
			m.browser = nil
		}
		m.mu.Unlock()
	}
}

// stale reports whether the proxied session has outlived RotateInterval.
// Sessions without a proxy template never rotate.
func (m *SessionManager) stale() bool {
	if m.cfg.Proxy == "" || !strings.Contains(m.cfg.Proxy, "{session}") || m.cfg.RotateInterval <= 0 {
		return false
	}
	return time.Since(m.launchedAt) > m.cfg.RotateInterval
}

// Stats reports the session state for the health endpoint.
func (m *SessionManager) Stats() models.SessionStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.browser != nil:
		return models.SessionStats{
			State:      models.SessionReady,
			AgeSeconds: int64(time.Since(m.launchedAt).Seconds()),
		}
	case m.inflight != nil:
		return models.SessionStats{State: models.SessionLaunching}
	default:
		return models.SessionStats{State: models.SessionAbsent}
	}
}

// Warmup launches the browser ahead of the first scrape.
func (m *SessionManager) Warmup(ctx context.Context) error {
	_, err := m.Acquire(ctx, false)
	return err
}

// Close shuts the browser down. Subsequent Acquires fail.
func (m *SessionManager) Close() {
	m.mu.Lock()
	b := m.browser
	m.browser = nil
	m.closed = true
	m.mu.Unlock()
	if b != nil {
		slog.Info("closing browser session")
		_ = b.Close()
	}
}

// launchBrowser starts a headless Chrome with automation fingerprints
// suppressed and connects over CDP.
func (m *SessionManager) launchBrowser(proxy string) (*rod.Browser, error) {
	l := launcher.New().
		Headless(m.cfg.Headless).
		NoSandbox(m.cfg.NoSandbox)

	if m.cfg.BrowserBin != "" {
		l = l.Bin(m.cfg.BrowserBin)
	}
	if proxy != "" {
		l = l.Proxy(proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "ja-JP")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "proxied", proxy != "")

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to browser: %w", err)
	}
	return browser, nil
}

// observeDisconnect calls onGone when the browser's CDP event stream
// closes, which happens when the process dies or the socket drops.
func observeDisconnect(b *rod.Browser, onGone func()) {
	go func() {
		for range b.Event() {
		}
		onGone()
	}()
}

// expandProxySession substitutes a random session id into a proxy URL
// template so each launch gets a distinct upstream identity.
func expandProxySession(proxy string) string {
	if !strings.Contains(proxy, "{session}") {
		return proxy
	}
	return strings.ReplaceAll(proxy, "{session}", fmt.Sprintf("s%08x", rand.Uint32()))
}
