package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	tls "github.com/refraction-networking/utls"

	"github.com/use-agent/itemscope/extract"
	"github.com/use-agent/itemscope/models"
	"github.com/use-agent/itemscope/normalize"
)

const (
	chromeUA         = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36"
	jaAcceptLanguage = "ja-JP,ja;q=0.9,en-US;q=0.8,en;q=0.7"
)

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only, so the server never negotiates HTTP/2 (which Go's
// http.Transport cannot handle over a utls connection). Computed once;
// when the spec cannot be built, chromeH1Ready stays false and the dialer
// uses the stock HelloChrome_Auto preset instead.
var (
	chromeH1Spec  tls.ClientHelloSpec
	chromeH1Ready bool
)

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
	chromeH1Ready = true
}

// DirectStrategy performs a single unauthenticated GET with a Chrome TLS
// fingerprint and browser-identity headers, then runs the locators and the
// quality gate over the static markup.
type DirectStrategy struct {
	client     *http.Client
	timeout    time.Duration
	gate       *extract.Gate
	minPrice   int
	minDescLen int
}

// NewDirectStrategy builds the direct fetch strategy. proxy may be empty;
// http/https proxies go through the transport, socks5 through the dialer.
func NewDirectStrategy(proxy string, timeout time.Duration, gate *extract.Gate, minPrice, minDescLen int) *DirectStrategy {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, proxy)
		},
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &DirectStrategy{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		timeout:    timeout,
		gate:       gate,
		minPrice:   minPrice,
		minDescLen: minDescLen,
	}
}

func (s *DirectStrategy) Name() models.Strategy { return models.StrategyDirect }

// Attempt fetches the page and layers the locators: structured data, then
// price meta tags, then the text-pattern scan. Network failures become
// rejected attempts, never errors.
func (s *DirectStrategy) Attempt(ctx context.Context, target string, site *extract.Site) *models.ExtractionAttempt {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := s.fetch(ctx, target)
	if err != nil {
		return models.RejectedAttempt(models.StrategyDirect, nil, fetchRejectReason(err))
	}

	doc, err := extract.ParseHTML(body)
	if err != nil {
		return models.RejectedAttempt(models.StrategyDirect, nil, "parse_failure: "+err.Error())
	}

	rec, prov := extract.LocateStructured(doc)
	if rec == nil {
		rec = &models.ProductRecord{Currency: "JPY"}
		prov = ""
	}

	// og/product price meta tags, before resorting to the text scan.
	if !rec.HasPrice() {
		for _, prop := range []string{"product:price:amount", "og:price:amount"} {
			if amount := normalize.Amount(doc.MetaContent(prop)); amount > 0 {
				rec.SetPrice(amount)
				if prov == "" {
					prov = models.ProvenanceMetaTag
				}
				break
			}
		}
	}

	if extract.ApplySelectors(doc, site, rec) && prov == "" {
		prov = models.ProvenanceDOMSelector
	}
	if extract.ScanText(doc, site, rec, s.minPrice, s.minDescLen) && prov == "" {
		prov = models.ProvenanceTextScan
	}

	// Manufacturer pages keep their description in an article body; let
	// readability find it, and collect spec/feature sections while we
	// still hold the parsed markup.
	if site.Name == models.SiteMaker {
		if rec.Description == "" {
			rec.Description = normalize.Text(extract.MainContentText(body, target, s.minDescLen))
		}
		rec.Specs = doc.ListItemsAfter(site.SpecLabels, 20)
		rec.Features = doc.ListItemsAfter(site.FeatureLabels, 20)
	}

	attempt := &models.ExtractionAttempt{
		Strategy:   models.StrategyDirect,
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

// fetch retrieves the raw page body with browser-identity headers and a
// bounded body size.
func (s *DirectStrategy) fetch(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", jaAcceptLanguage)
	req.Header.Set("Accept-Encoding", "identity")
	req.Header.Set("Cache-Control", "no-cache")
	if u, parseErr := url.Parse(target); parseErr == nil {
		req.Header.Set("Referer", "https://www.google.com/search?q="+url.QueryEscape(u.Hostname()))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, target)
	}

	const maxBody = 10 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

// fetchRejectReason maps a fetch error to a machine-readable reject reason.
func fetchRejectReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "network_timeout"
	}
	return "network_failure: " + err.Error()
}

// dialTLSChrome establishes a TLS connection with the Chrome fingerprint,
// optionally through a socks5 proxy.
func dialTLSChrome(ctx context.Context, network, addr, proxy string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	var rawConn net.Conn
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "socks5" || proxyURL.Scheme == "socks5h") {
			socksConn, socksErr := dialer.DialContext(ctx, "tcp", proxyURL.Host)
			if socksErr != nil {
				return nil, fmt.Errorf("socks5 dial: %w", socksErr)
			}
			rawConn = socksConn
		}
	}
	if rawConn == nil {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		rawConn = conn
	}

	host, _, _ := net.SplitHostPort(addr)
	if !chromeH1Ready {
		tlsConn := tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloChrome_Auto)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			rawConn.Close()
			return nil, err
		}
		return tlsConn, nil
	}
	tlsConn := tls.UClient(rawConn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		rawConn.Close()
		return nil, fmt.Errorf("apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}
