package models

import "github.com/use-agent/itemscope/normalize"

// ProductRecord is the canonical extracted item. Absent text fields are
// empty strings; an absent price is a zero PriceAmount. PriceDisplay is
// derived from PriceAmount only (never set independently), so the two are
// always present or absent together.
type ProductRecord struct {
	Title        string `json:"title,omitempty"`
	Brand        string `json:"brand,omitempty"`
	PriceAmount  int    `json:"price_number,omitempty"`
	PriceDisplay string `json:"price,omitempty"`
	Currency     string `json:"currency"`
	Condition    string `json:"condition,omitempty"`
	Description  string `json:"description,omitempty"`

	// Specs and Features are only populated for manufacturer reference
	// pages, where spec/feature sections are part of the page structure.
	Specs    []string `json:"specs_official,omitempty"`
	Features []string `json:"features_official,omitempty"`
}

// SetPrice records the integer amount and derives its display form, so
// the pair can never disagree. A non-positive amount clears both fields.
func (r *ProductRecord) SetPrice(amount int) {
	if amount <= 0 {
		r.PriceAmount = 0
		r.PriceDisplay = ""
		return
	}
	r.PriceAmount = amount
	r.PriceDisplay = normalize.FormatJPY(amount)
}

// HasPrice reports whether a price was extracted.
func (r *ProductRecord) HasPrice() bool { return r.PriceAmount > 0 }

// Empty reports whether title, price, and description are all absent.
func (r *ProductRecord) Empty() bool {
	return r == nil || (r.Title == "" && r.PriceAmount == 0 && r.Description == "")
}

// FillFrom copies fields from other into r wherever r's field is absent.
// It never overwrites a field r already has.
func (r *ProductRecord) FillFrom(other *ProductRecord) {
	if other == nil {
		return
	}
	if r.Title == "" {
		r.Title = other.Title
	}
	if r.Brand == "" {
		r.Brand = other.Brand
	}
	if r.PriceAmount == 0 && other.PriceAmount > 0 {
		r.SetPrice(other.PriceAmount)
		if other.Currency != "" {
			r.Currency = other.Currency
		}
	}
	if r.Condition == "" {
		r.Condition = other.Condition
	}
	if r.Description == "" {
		r.Description = other.Description
	}
}

// MergedRecord is the dual-target result: marketplace listing fields merged
// with manufacturer reference fields. Marketplace wins for brand, price,
// condition and the seller's description; the manufacturer page wins for
// product name, specs and features.
type MergedRecord struct {
	Brand            string   `json:"brand,omitempty"`
	ProductName      string   `json:"product_name,omitempty"`
	PriceAmount      int      `json:"price_number,omitempty"`
	PriceDisplay     string   `json:"price,omitempty"`
	Currency         string   `json:"currency"`
	Condition        string   `json:"condition,omitempty"`
	DescriptionUser  string   `json:"description_user,omitempty"`
	SpecsOfficial    []string `json:"specs_official"`
	FeaturesOfficial []string `json:"features_official"`
}
