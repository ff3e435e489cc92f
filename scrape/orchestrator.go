package scrape

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/use-agent/itemscope/config"
	"github.com/use-agent/itemscope/extract"
	"github.com/use-agent/itemscope/models"
)

// Orchestrator composes the two strategies into the cascade policy: which
// strategy runs first, when to escalate, and how a dual-source scrape is
// raced and merged. It holds no per-request state and is safe for
// concurrent use.
type Orchestrator struct {
	direct   Strategy
	rendered Strategy
	cfg      config.ScraperConfig
}

func NewOrchestrator(direct, rendered Strategy, cfg config.ScraperConfig) *Orchestrator {
	return &Orchestrator{direct: direct, rendered: rendered, cfg: cfg}
}

// Scrape runs the cascade for one item page and returns a structured
// result. Invalid input is the only condition reported as an error; every
// downstream failure comes back inside the result with ok=false.
func (o *Orchestrator) Scrape(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResult, error) {
	req.Defaults()
	if err := validateURL(req.URL); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid target url", err)
	}
	site := extract.SiteFor(req.Site)

	timeout := time.Duration(req.Timeout) * time.Second
	if timeout > o.cfg.MaxTimeout {
		timeout = o.cfg.MaxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	directOnly := req.DirectOnly || o.cfg.DirectOnly
	quick := (req.Quick != nil && *req.Quick) || o.cfg.DirectFirst

	start := time.Now()
	result := o.cascade(ctx, req.URL, site, quick, directOnly)
	slog.Info("scrape finished",
		"url", req.URL,
		"site", site.Name,
		"ok", result.OK,
		"via", result.Via,
		"provenance", result.Provenance,
		"duration", time.Since(start).Round(time.Millisecond))
	return result, nil
}

// cascade applies the strategy ordering rules for one target.
func (o *Orchestrator) cascade(ctx context.Context, target string, site *extract.Site, quick, directOnly bool) *models.ScrapeResult {
	if directOnly {
		return toResult(target, o.direct.Attempt(ctx, target, site))
	}

	if quick {
		direct := o.direct.Attempt(ctx, target, site)
		if direct.Accepted {
			return toResult(target, direct)
		}
		slog.Debug("direct attempt rejected, escalating to rendered",
			"url", target, "reason", direct.RejectReason)
		rendered := o.rendered.Attempt(ctx, target, site)
		if !rendered.Accepted {
			// A rejected render still reports the direct attempt's
			// partial fields for diagnostics.
			carryPartials(rendered, direct)
		}
		return toResult(target, rendered)
	}

	rendered := o.rendered.Attempt(ctx, target, site)
	if rendered.Accepted {
		return toResult(target, rendered)
	}
	slog.Debug("rendered attempt rejected, falling back to direct",
		"url", target, "reason", rendered.RejectReason)
	direct := o.direct.Attempt(ctx, target, site)
	if !direct.Accepted {
		carryPartials(direct, rendered)
	}
	return toResult(target, direct)
}

// Warmup is used by deployments that want the browser up before traffic.
func (o *Orchestrator) Warmup(ctx context.Context) error {
	if w, ok := o.rendered.(interface{ Warmup(context.Context) error }); ok {
		return w.Warmup(ctx)
	}
	return nil
}

// ScrapeBoth runs the marketplace listing and the manufacturer reference
// page concurrently, each under its own budget and both under a combined
// budget, then merges the two records. At least one source must succeed
// for ok=true; a source that misses its budget is reported as timed out
// in SourceStatus while its goroutine finishes in the background.
func (o *Orchestrator) ScrapeBoth(ctx context.Context, req *models.ScrapeBothRequest) (*models.ScrapeBothResult, error) {
	if req.ListingURL == "" && req.MakerURL == "" {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "at least one of listing_url and maker_url is required", nil)
	}
	for _, u := range []string{req.ListingURL, req.MakerURL} {
		if u == "" {
			continue
		}
		if err := validateURL(u); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "invalid target url", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.BothTotalTimeout)
	defer cancel()

	type sourceOutcome struct {
		name   string
		result *models.ScrapeResult
	}
	resCh := make(chan sourceOutcome, 2)

	jobs := 0
	launch := func(name, target string, site *extract.Site, directOnly bool) {
		jobs++
		go func() {
			jobCtx, jobCancel := context.WithTimeout(ctx, o.cfg.BothJobTimeout)
			defer jobCancel()
			resCh <- sourceOutcome{name, o.cascade(jobCtx, target, site, true, directOnly)}
		}()
	}

	if req.ListingURL != "" {
		launch(models.SourceListing, req.ListingURL, extract.SiteFor(models.SiteMarketplace), false)
	}
	if req.MakerURL != "" {
		// Manufacturer pages are server-rendered; rendering them would
		// burn the combined budget for nothing.
		launch(models.SourceMaker, req.MakerURL, extract.SiteFor(models.SiteMaker), true)
	}

	status := map[string]string{}
	attempts := map[string]*models.ScrapeResult{}
collect:
	for i := 0; i < jobs; i++ {
		select {
		case out := <-resCh:
			attempts[out.name] = out.result
			if out.result.OK {
				status[out.name] = "ok"
			} else {
				status[out.name] = out.result.Error
			}
		case <-ctx.Done():
			for _, name := range []string{models.SourceListing, models.SourceMaker} {
				if _, seen := status[name]; !seen && sourceRequested(name, req) {
					status[name] = "combined_timeout"
				}
			}
			break collect
		}
	}

	merged, anyOK := mergeSources(attempts[models.SourceListing], attempts[models.SourceMaker])
	result := &models.ScrapeBothResult{OK: anyOK, SourceStatus: status}
	if anyOK {
		result.Merged = merged
	} else {
		result.Error = &models.ErrorDetail{
			Code:    models.ErrCodeIncomplete,
			Message: "no source produced an accepted record",
		}
	}
	return result, nil
}

// sourceRequested reports whether a named source was part of the request.
func sourceRequested(name string, req *models.ScrapeBothRequest) bool {
	switch name {
	case models.SourceListing:
		return req.ListingURL != ""
	case models.SourceMaker:
		return req.MakerURL != ""
	}
	return false
}

// mergeSources combines the two source records. Marketplace fields win
// for brand, price, condition and the seller's description; manufacturer
// fields win for the product name, specs and features.
func mergeSources(listing, maker *models.ScrapeResult) (*models.MergedRecord, bool) {
	var listingRec, makerRec *models.ProductRecord
	anyOK := false
	if listing != nil && listing.OK {
		listingRec = listing.Data
		anyOK = true
	}
	if maker != nil && maker.OK {
		makerRec = maker.Data
		anyOK = true
	}
	if !anyOK {
		return nil, false
	}

	merged := &models.MergedRecord{Currency: "JPY"}
	if makerRec != nil {
		merged.ProductName = makerRec.Title
		merged.SpecsOfficial = makerRec.Specs
		merged.FeaturesOfficial = makerRec.Features
	}
	if listingRec != nil {
		if merged.ProductName == "" {
			merged.ProductName = listingRec.Title
		}
		merged.Brand = listingRec.Brand
		merged.PriceAmount = listingRec.PriceAmount
		merged.PriceDisplay = listingRec.PriceDisplay
		merged.Condition = listingRec.Condition
		merged.DescriptionUser = listingRec.Description
		if listingRec.Currency != "" {
			merged.Currency = listingRec.Currency
		}
	}
	if merged.Brand == "" && makerRec != nil {
		merged.Brand = makerRec.Brand
	}
	if merged.PriceAmount == 0 && makerRec != nil && makerRec.HasPrice() {
		merged.PriceAmount = makerRec.PriceAmount
		merged.PriceDisplay = makerRec.PriceDisplay
	}
	if merged.SpecsOfficial == nil {
		merged.SpecsOfficial = []string{}
	}
	if merged.FeaturesOfficial == nil {
		merged.FeaturesOfficial = []string{}
	}
	return merged, true
}

// toResult converts a final attempt to the externally-visible result.
func toResult(target string, attempt *models.ExtractionAttempt) *models.ScrapeResult {
	result := &models.ScrapeResult{
		OK:         attempt.Accepted,
		URL:        target,
		Via:        attempt.Strategy,
		Data:       attempt.Record,
		Provenance: attempt.Provenance,
	}
	if !attempt.Accepted {
		result.Error = attempt.RejectReason
	}
	return result
}

// carryPartials copies any fields the earlier attempt found into the
// final rejected attempt's record so callers see the best partial data.
func carryPartials(final, earlier *models.ExtractionAttempt) {
	if earlier == nil || earlier.Record == nil {
		return
	}
	if final.Record == nil {
		final.Record = &models.ProductRecord{}
	}
	final.Record.FillFrom(earlier.Record)
}

// validateURL accepts absolute http(s) URLs with a host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &url.Error{Op: "parse", URL: raw, Err: errUnsupportedScheme}
	}
	if u.Host == "" {
		return &url.Error{Op: "parse", URL: raw, Err: errMissingHost}
	}
	return nil
}

var (
	errUnsupportedScheme = errorString("unsupported scheme")
	errMissingHost       = errorString("missing host")
)

type errorString string

func (e errorString) Error() string { return string(e) }
