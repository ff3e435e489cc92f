package scrape

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/itemscope/config"
	"github.com/use-agent/itemscope/extract"
	"github.com/use-agent/itemscope/models"
)

// RenderedStrategy drives the shared headless browser: it opens an
// incognito context, navigates with a Japanese browser identity, waits for
// the client-side price hydration, then runs the same locators as the
// direct path over the rendered markup.
type RenderedStrategy struct {
	session    *SessionManager
	cfg        config.ScraperConfig
	gate       *extract.Gate
	minPrice   int
	minDescLen int
}

func NewRenderedStrategy(session *SessionManager, cfg config.ScraperConfig, gate *extract.Gate, minPrice, minDescLen int) *RenderedStrategy {
	return &RenderedStrategy{
		session:    session,
		cfg:        cfg,
		gate:       gate,
		minPrice:   minPrice,
		minDescLen: minDescLen,
	}
}

func (s *RenderedStrategy) Name() models.Strategy { return models.StrategyRendered }

// Attempt renders the page and extracts from the hydrated markup. All
// failures come back as rejected attempts with a machine-readable reason;
// a browser that cannot launch is the one condition reported as
// session_unavailable so the orchestrator can surface it distinctly.
func (s *RenderedStrategy) Attempt(ctx context.Context, target string, site *extract.Site) *models.ExtractionAttempt {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	browser, err := s.session.Acquire(ctx, false)
	if err != nil {
		return models.RejectedAttempt(models.StrategyRendered, nil, "session_unavailable: "+err.Error())
	}

	rawHTML, err := s.renderPage(ctx, browser, target, site)
	if err != nil {
		return models.RejectedAttempt(models.StrategyRendered, nil, renderRejectReason(err))
	}

	doc, err := extract.ParseHTML(rawHTML)
	if err != nil {
		return models.RejectedAttempt(models.StrategyRendered, nil, "parse_failure: "+err.Error())
	}

	rec, prov := extract.LocateStructured(doc)
	if rec == nil {
		rec = &models.ProductRecord{Currency: "JPY"}
		prov = ""
	}
	if extract.ApplySelectors(doc, site, rec) && prov == "" {
		prov = models.ProvenanceDOMSelector
	}
	if extract.ScanText(doc, site, rec, s.minPrice, s.minDescLen) && prov == "" {
		prov = models.ProvenanceTextScan
	}

	attempt := &models.ExtractionAttempt{
		Strategy:   models.StrategyRendered,
		Provenance: prov,
		Record:     rec,
	}
	if ok, reason := s.gate.Check(rec, site); !ok {
		attempt.RejectReason = reason
		return attempt
	}
	attempt.Accepted = true
	return attempt
}

// renderPage navigates an isolated incognito context to the target and
// returns the rendered markup once hydration has settled.
//
// Stealth JS and the hijack router must both be installed before the
// navigation or they do not apply to it.
func (s *RenderedStrategy) renderPage(ctx context.Context, browser *rod.Browser, target string, site *extract.Site) (string, error) {
	incognito, err := browser.Incognito()
	if err != nil {
		return "", err
	}
	// Disposing the context closes its pages and drops its cookies in one
	// call, using the original browser handle so cleanup still works after
	// the request context has expired.
	defer func() {
		_ = proto.TargetDisposeBrowserContext{
			BrowserContextID: incognito.BrowserContextID,
		}.Call(browser)
	}()

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	_ = proto.NetworkSetUserAgentOverride{
		UserAgent:      chromeUA,
		AcceptLanguage: jaAcceptLanguage,
	}.Call(page)
	_ = proto.EmulationSetTimezoneOverride{TimezoneID: "Asia/Tokyo"}.Call(page)
	_ = proto.EmulationSetLocaleOverride{Locale: "ja-JP"}.Call(page)

	headers := map[string]string{}
	if u, parseErr := url.Parse(target); parseErr == nil {
		headers["Referer"] = "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
	}
	if len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	router := setupHijack(page, s.cfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	p := page.Context(ctx)

	if navErr := p.Navigate(target); navErr != nil {
		return "", navErr
	}
	settle(p)

	// Item pages that bounce to an interstitial or the top page get one
	// reload before giving up.
	if !arrivedAtItem(p, site) {
		slog.Debug("not on an item page after navigation, reloading once", "url", target)
		if reloadErr := p.Reload(); reloadErr == nil {
			settle(p)
		}
	}

	s.waitForPrice(ctx, p, site)

	return p.HTML()
}

// settle waits for the load event, then for the DOM to stop mutating.
// Neither wait is fatal: a page that never settles still gets extracted
// from whatever markup is present.
func settle(p *rod.Page) {
	if err := p.WaitLoad(); err != nil {
		slog.Debug("load event wait failed, proceeding", "error", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// arrivedAtItem reports whether the page URL still looks like an item
// page. Sites without an ItemPath pattern always count as arrived.
func arrivedAtItem(p *rod.Page, site *extract.Site) bool {
	if site.ItemPath == nil {
		return true
	}
	info, err := p.Info()
	if err != nil {
		return true
	}
	return site.ItemPath.MatchString(info.URL)
}

// waitForPrice polls for a price element or a structured-data block so
// extraction runs against hydrated markup. Bounded by the remaining
// context deadline and a hard cap; gives up silently, the text scan still
// has a chance on whatever rendered.
func (s *RenderedStrategy) waitForPrice(ctx context.Context, p *rod.Page, site *extract.Site) {
	probes := append([]string{`script[type="application/ld+json"]`}, site.PriceSelectors...)
	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		for _, sel := range probes {
			if has, _, err := p.Has(sel); err == nil && has {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// renderRejectReason maps a render error to a machine-readable reject reason.
func renderRejectReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "navigation_timeout"
	}
	return "render_failure: " + err.Error()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
