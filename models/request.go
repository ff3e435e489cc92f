package models

// SiteMarketplace and SiteMaker select which site adapter a scrape uses.
const (
	SiteMarketplace = "mercari"
	SiteMaker       = "maker"
)

// ScrapeRequest is the payload for POST /api/v1/scrape.
type ScrapeRequest struct {
	// URL is the target item page. Required.
	URL string `json:"url" binding:"required,url"`

	// Site selects the site adapter: "mercari" (default) or "maker".
	Site string `json:"site,omitempty" binding:"omitempty,oneof=mercari maker"`

	// Quick runs the direct fetch first and only escalates to the
	// rendered path when the direct result is rejected. Default: true.
	Quick *bool `json:"quick,omitempty"`

	// DirectOnly never escalates to the rendered path; the direct
	// attempt's acceptance or rejection is surfaced as-is.
	DirectOnly bool `json:"direct_only,omitempty"`

	// Timeout is the maximum duration in seconds for the whole scrape.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`
}

// Defaults applies default values to unset fields.
func (r *ScrapeRequest) Defaults() {
	if r.Site == "" {
		r.Site = SiteMarketplace
	}
	if r.Quick == nil {
		t := true
		r.Quick = &t
	}
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}

// Source names used in ScrapeBothResult.SourceStatus. The listing key is
// the marketplace name so the payload reads "mercari: ok", "maker: ok".
const (
	SourceListing = "mercari"
	SourceMaker   = "maker"
)

// ScrapeBothRequest is the payload for POST /api/v1/scrape/both.
// At least one URL is required.
type ScrapeBothRequest struct {
	// ListingURL is the marketplace item page.
	ListingURL string `json:"listing_url,omitempty" binding:"omitempty,url"`

	// MakerURL is the manufacturer's reference page for the same product.
	MakerURL string `json:"maker_url,omitempty" binding:"omitempty,url"`
}
