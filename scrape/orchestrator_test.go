package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/itemscope/config"
	"github.com/use-agent/itemscope/extract"
	"github.com/use-agent/itemscope/models"
)

// fakeStrategy returns canned attempts and counts invocations.
type fakeStrategy struct {
	name    models.Strategy
	calls   int
	attempt func(target string) *models.ExtractionAttempt
}

func (f *fakeStrategy) Name() models.Strategy { return f.name }

func (f *fakeStrategy) Attempt(_ context.Context, target string, _ *extract.Site) *models.ExtractionAttempt {
	f.calls++
	return f.attempt(target)
}

func accepted(s models.Strategy, title string, price int) func(string) *models.ExtractionAttempt {
	return func(string) *models.ExtractionAttempt {
		rec := &models.ProductRecord{Title: title, Currency: "JPY"}
		rec.SetPrice(price)
		return &models.ExtractionAttempt{
			Strategy:   s,
			Provenance: models.ProvenanceStructured,
			Record:     rec,
			Accepted:   true,
		}
	}
}

func rejected(s models.Strategy, reason string, rec *models.ProductRecord) func(string) *models.ExtractionAttempt {
	return func(string) *models.ExtractionAttempt {
		return models.RejectedAttempt(s, rec, reason)
	}
}

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		FetchTimeout:     time.Second,
		NavTimeout:       time.Second,
		MaxTimeout:       10 * time.Second,
		BothJobTimeout:   5 * time.Second,
		BothTotalTimeout: 8 * time.Second,
	}
}

func TestScrapeQuickReturnsDirectWhenAccepted(t *testing.T) {
	direct := &fakeStrategy{name: models.StrategyDirect, attempt: accepted(models.StrategyDirect, "Widget A", 12000)}
	rendered := &fakeStrategy{name: models.StrategyRendered, attempt: accepted(models.StrategyRendered, "Widget A", 12000)}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	result, err := o.Scrape(context.Background(), &models.ScrapeRequest{URL: "https://jp.mercari.com/item/m123"})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if !result.OK || result.Via != models.StrategyDirect {
		t.Fatalf("got ok=%v via=%q, want accepted direct", result.OK, result.Via)
	}
	if rendered.calls != 0 {
		t.Fatalf("rendered strategy invoked %d times, want 0", rendered.calls)
	}
}

func TestScrapeEscalatesExactlyOnce(t *testing.T) {
	direct := &fakeStrategy{
		name:    models.StrategyDirect,
		attempt: rejected(models.StrategyDirect, extract.RejectGenericTitle, nil),
	}
	rendered := &fakeStrategy{name: models.StrategyRendered, attempt: accepted(models.StrategyRendered, "Widget A", 12000)}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	result, err := o.Scrape(context.Background(), &models.ScrapeRequest{URL: "https://jp.mercari.com/item/m123"})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if !result.OK {
		t.Fatalf("result not accepted: %s", result.Error)
	}
	if result.Via != models.StrategyRendered {
		t.Fatalf("via = %q, want rendered", result.Via)
	}
	if direct.calls != 1 || rendered.calls != 1 {
		t.Fatalf("calls direct=%d rendered=%d, want 1 and 1", direct.calls, rendered.calls)
	}
}

func TestScrapeDirectOnlyNeverRenders(t *testing.T) {
	direct := &fakeStrategy{
		name:    models.StrategyDirect,
		attempt: rejected(models.StrategyDirect, "network_timeout", nil),
	}
	rendered := &fakeStrategy{name: models.StrategyRendered, attempt: accepted(models.StrategyRendered, "Widget A", 12000)}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	result, err := o.Scrape(context.Background(), &models.ScrapeRequest{
		URL:        "https://jp.mercari.com/item/m123",
		DirectOnly: true,
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if result.OK {
		t.Fatal("rejected direct attempt reported ok in direct-only mode")
	}
	if result.Error != "network_timeout" {
		t.Fatalf("error = %q, want network_timeout", result.Error)
	}
	if rendered.calls != 0 {
		t.Fatalf("rendered strategy invoked %d times in direct-only mode", rendered.calls)
	}
}

func TestScrapeRenderFirstFallsBackToDirect(t *testing.T) {
	direct := &fakeStrategy{name: models.StrategyDirect, attempt: accepted(models.StrategyDirect, "Widget A", 12000)}
	rendered := &fakeStrategy{
		name:    models.StrategyRendered,
		attempt: rejected(models.StrategyRendered, "navigation_timeout", nil),
	}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	quick := false
	result, err := o.Scrape(context.Background(), &models.ScrapeRequest{
		URL:   "https://jp.mercari.com/item/m123",
		Quick: &quick,
	})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if !result.OK || result.Via != models.StrategyDirect {
		t.Fatalf("got ok=%v via=%q, want direct fallback accepted", result.OK, result.Via)
	}
	if rendered.calls != 1 {
		t.Fatalf("rendered calls = %d, want 1 (ran first)", rendered.calls)
	}
}

func TestScrapeRejectedRenderCarriesDirectPartials(t *testing.T) {
	direct := &fakeStrategy{
		name: models.StrategyDirect,
		attempt: rejected(models.StrategyDirect, extract.RejectMissingPrice,
			&models.ProductRecord{Title: "Partial Widget"}),
	}
	rendered := &fakeStrategy{
		name:    models.StrategyRendered,
		attempt: rejected(models.StrategyRendered, "navigation_timeout", nil),
	}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	result, err := o.Scrape(context.Background(), &models.ScrapeRequest{URL: "https://jp.mercari.com/item/m123"})
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if result.OK {
		t.Fatal("double rejection reported ok")
	}
	if result.Data == nil || result.Data.Title != "Partial Widget" {
		t.Fatalf("partial data = %+v, want direct attempt's title carried over", result.Data)
	}
}

func TestScrapeRejectsInvalidInput(t *testing.T) {
	direct := &fakeStrategy{name: models.StrategyDirect, attempt: accepted(models.StrategyDirect, "x", 1500)}
	rendered := &fakeStrategy{name: models.StrategyRendered, attempt: accepted(models.StrategyRendered, "x", 1500)}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	for _, raw := range []string{"", "not-a-url", "ftp://example.com/file", "https://"} {
		_, err := o.Scrape(context.Background(), &models.ScrapeRequest{URL: raw})
		var se *models.ScrapeError
		if !errors.As(err, &se) || se.Code != models.ErrCodeInvalidInput {
			t.Errorf("Scrape(%q) error = %v, want INVALID_INPUT", raw, err)
		}
		if direct.calls != 0 || rendered.calls != 0 {
			t.Fatalf("strategy ran for invalid input %q", raw)
		}
	}
}

func TestScrapeBothMergesSources(t *testing.T) {
	direct := &fakeStrategy{
		name: models.StrategyDirect,
		attempt: func(target string) *models.ExtractionAttempt {
			rec := &models.ProductRecord{Currency: "JPY"}
			if target == "https://example-maker.jp/products/widget-a" {
				rec.Title = "Widget A Official"
				rec.Brand = "Acme"
				rec.Specs = []string{"Weight: 1.2kg"}
				rec.Features = []string{"Waterproof"}
			} else {
				rec.Title = "Widget A used"
				rec.Condition = "目立った傷や汚れなし"
				rec.Description = "Seller notes here"
				rec.SetPrice(8500)
			}
			return &models.ExtractionAttempt{
				Strategy:   models.StrategyDirect,
				Provenance: models.ProvenanceStructured,
				Record:     rec,
				Accepted:   true,
			}
		},
	}
	rendered := &fakeStrategy{name: models.StrategyRendered, attempt: rejected(models.StrategyRendered, "unused", nil)}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	result, err := o.ScrapeBoth(context.Background(), &models.ScrapeBothRequest{
		ListingURL: "https://jp.mercari.com/item/m123",
		MakerURL:   "https://example-maker.jp/products/widget-a",
	})
	if err != nil {
		t.Fatalf("ScrapeBoth: %v", err)
	}
	if !result.OK {
		t.Fatalf("not ok: %+v", result.Error)
	}
	m := result.Merged
	if m.ProductName != "Widget A Official" {
		t.Errorf("ProductName = %q, want manufacturer title", m.ProductName)
	}
	if m.Brand != "Acme" {
		t.Errorf("Brand = %q, want Acme", m.Brand)
	}
	if m.PriceAmount != 8500 || m.PriceDisplay != "¥ 8,500" {
		t.Errorf("price = %d/%q, want listing price 8500", m.PriceAmount, m.PriceDisplay)
	}
	if m.Condition != "目立った傷や汚れなし" || m.DescriptionUser != "Seller notes here" {
		t.Errorf("listing-sourced fields lost: %+v", m)
	}
	if len(m.SpecsOfficial) != 1 || len(m.FeaturesOfficial) != 1 {
		t.Errorf("manufacturer specs/features lost: %+v", m)
	}
	// Literal keys: the payload names the marketplace source "mercari".
	if result.SourceStatus["mercari"] != "ok" || result.SourceStatus["maker"] != "ok" {
		t.Errorf("source status = %v", result.SourceStatus)
	}
}

// When both sources carry a brand, the marketplace listing's brand wins
// and the manufacturer page only fills the gap.
func TestScrapeBothBrandPrefersListing(t *testing.T) {
	direct := &fakeStrategy{
		name: models.StrategyDirect,
		attempt: func(target string) *models.ExtractionAttempt {
			rec := &models.ProductRecord{Currency: "JPY"}
			if target == "https://example-maker.jp/products/widget-a" {
				rec.Title = "Widget A Official"
				rec.Brand = "Acme Industrial Co., Ltd."
			} else {
				rec.Title = "Widget A used"
				rec.Brand = "Acme"
				rec.SetPrice(8500)
			}
			return &models.ExtractionAttempt{
				Strategy: models.StrategyDirect,
				Record:   rec,
				Accepted: true,
			}
		},
	}
	rendered := &fakeStrategy{name: models.StrategyRendered, attempt: rejected(models.StrategyRendered, "unused", nil)}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	result, err := o.ScrapeBoth(context.Background(), &models.ScrapeBothRequest{
		ListingURL: "https://jp.mercari.com/item/m123",
		MakerURL:   "https://example-maker.jp/products/widget-a",
	})
	if err != nil {
		t.Fatalf("ScrapeBoth: %v", err)
	}
	if !result.OK {
		t.Fatalf("not ok: %+v", result.Error)
	}
	if result.Merged.Brand != "Acme" {
		t.Errorf("Brand = %q, want the listing's brand", result.Merged.Brand)
	}
	if result.Merged.ProductName != "Widget A Official" {
		t.Errorf("ProductName = %q, want the manufacturer title", result.Merged.ProductName)
	}
}

func TestScrapeBothSingleSourceStillMerges(t *testing.T) {
	direct := &fakeStrategy{name: models.StrategyDirect, attempt: accepted(models.StrategyDirect, "Widget A used", 8500)}
	rendered := &fakeStrategy{name: models.StrategyRendered, attempt: rejected(models.StrategyRendered, "unused", nil)}
	o := NewOrchestrator(direct, rendered, testScraperConfig())

	result, err := o.ScrapeBoth(context.Background(), &models.ScrapeBothRequest{
		ListingURL: "https://jp.mercari.com/item/m123",
	})
	if err != nil {
		t.Fatalf("ScrapeBoth: %v", err)
	}
	if !result.OK || result.Merged == nil {
		t.Fatalf("single-source merge failed: %+v", result)
	}
	if result.Merged.ProductName != "Widget A used" || result.Merged.PriceAmount != 8500 {
		t.Errorf("merged = %+v", result.Merged)
	}
	if _, present := result.SourceStatus[models.SourceMaker]; present {
		t.Errorf("unrequested source reported: %v", result.SourceStatus)
	}
}

func TestScrapeBothRequiresAURL(t *testing.T) {
	o := NewOrchestrator(
		&fakeStrategy{name: models.StrategyDirect, attempt: rejected(models.StrategyDirect, "unused", nil)},
		&fakeStrategy{name: models.StrategyRendered, attempt: rejected(models.StrategyRendered, "unused", nil)},
		testScraperConfig(),
	)
	_, err := o.ScrapeBoth(context.Background(), &models.ScrapeBothRequest{})
	var se *models.ScrapeError
	if !errors.As(err, &se) || se.Code != models.ErrCodeInvalidInput {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}
}
