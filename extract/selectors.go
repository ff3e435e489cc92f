package extract

import (
	"github.com/use-agent/itemscope/models"
	"github.com/use-agent/itemscope/normalize"
)

// ApplySelectors fills absent record fields from the site's DOM selector
// lists. Selector hits never overwrite structured-data values. Returns
// true if at least one field was filled.
func ApplySelectors(doc Document, site *Site, rec *models.ProductRecord) bool {
	filled := false

	if rec.Title == "" {
		if title := normalize.Text(doc.SelectText(site.TitleSelectors)); title != "" && !site.IsGenericTitle(title) {
			rec.Title = title
			filled = true
		}
	}
	if !rec.HasPrice() {
		if amount := normalize.Amount(doc.SelectText(site.PriceSelectors)); amount > 0 {
			rec.SetPrice(amount)
			filled = true
		}
	}
	if rec.Brand == "" {
		if brand := normalize.Text(doc.SelectText(site.BrandSelectors)); brand != "" {
			rec.Brand = brand
			filled = true
		}
	}
	if rec.Condition == "" {
		if cond := normalize.Text(doc.SelectText(site.ConditionSelectors)); cond != "" {
			rec.Condition = cond
			filled = true
		}
	}
	if rec.Description == "" {
		if desc := selectDescription(doc, site); desc != "" {
			rec.Description = desc
			filled = true
		}
	}
	return filled
}

// selectDescription prefers the markdown rendering of the description
// element so seller formatting survives, falling back to its plain text.
func selectDescription(doc Document, site *Site) string {
	if hd, ok := doc.(*HTMLDocument); ok {
		if md := DescriptionMarkdown(hd.SelectHTML(site.DescriptionSelectors)); md != "" {
			return md
		}
	}
	return normalize.Text(doc.SelectText(site.DescriptionSelectors))
}
