package extract

import "github.com/use-agent/itemscope/models"

// Reject reasons returned by the gate. These travel to the caller as
// machine-readable strings when no further strategy remains.
const (
	RejectEmptyRecord        = "empty_record"
	RejectMissingTitle       = "missing_title"
	RejectGenericTitle       = "generic_title"
	RejectMissingPrice       = "missing_price"
	RejectImplausiblePrice   = "implausible_price"
	RejectMissingDescription = "missing_description"
)

// Gate is the result quality gate: it decides whether an extracted
// candidate is trustworthy or whether the caller should escalate to a more
// expensive strategy. A cheap pass can silently match boilerplate (the
// site-wide title, a shipping fee) — the gate exists to catch exactly that.
type Gate struct {
	// MinPlausiblePrice rejects amounts below this as fee/shipping noise.
	MinPlausiblePrice int

	// RequireDescription additionally rejects records with no description.
	RequireDescription bool
}

// NewGate builds a gate with the given tunables.
func NewGate(minPlausiblePrice int, requireDescription bool) *Gate {
	return &Gate{MinPlausiblePrice: minPlausiblePrice, RequireDescription: requireDescription}
}

// Check returns (true, "") when the record is acceptable, or (false,
// reason) naming the first failed criterion.
func (g *Gate) Check(rec *models.ProductRecord, site *Site) (bool, string) {
	if rec.Empty() {
		return false, RejectEmptyRecord
	}
	if rec.Title == "" {
		return false, RejectMissingTitle
	}
	if site.IsGenericTitle(rec.Title) {
		return false, RejectGenericTitle
	}
	if !rec.HasPrice() {
		return false, RejectMissingPrice
	}
	if rec.PriceAmount < g.MinPlausiblePrice {
		return false, RejectImplausiblePrice
	}
	if g.RequireDescription && rec.Description == "" {
		return false, RejectMissingDescription
	}
	return true, ""
}
