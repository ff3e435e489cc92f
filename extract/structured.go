package extract

import (
	"encoding/json"
	"math"

	"github.com/use-agent/itemscope/models"
	"github.com/use-agent/itemscope/normalize"
)

const (
	ldJSONType        = "application/ld+json"
	hydrationJSONType = "application/json"
)

// LocateStructured searches a document for embedded structured product
// data, in priority order: schema.org Product blocks (including @graph
// containers), then arbitrary hydration JSON payloads, then og/meta tags.
// Malformed blocks are skipped silently; they never abort the search.
// Returns nil when no candidate at all was found.
func LocateStructured(doc Document) (*models.ProductRecord, models.Provenance) {
	// 1. JSON-LD Product blocks: first full match wins.
	for _, block := range doc.ScriptBlocks(ldJSONType) {
		var root any
		if err := json.Unmarshal([]byte(block), &root); err != nil {
			continue
		}
		var rec *models.ProductRecord
		walkBFS(root, func(obj map[string]any) bool {
			if !typeDenotesProduct(obj["@type"]) {
				return false
			}
			rec = productFromLD(obj)
			return true
		})
		if rec != nil {
			return rec, models.ProvenanceStructured
		}
	}

	// 2. Hydration payloads: score weak candidates across all blocks.
	if rec := bestHydrationCandidate(doc.ScriptBlocks(hydrationJSONType)); rec != nil {
		return rec, models.ProvenanceEmbeddedJSON
	}

	// 3. Social/SEO meta tags: partial record, title only, no price.
	title := doc.MetaContent("og:title")
	description := doc.MetaContent("og:description")
	if title == "" && description == "" {
		return nil, ""
	}
	return &models.ProductRecord{
		Title:       title,
		Currency:    "JPY",
		Description: description,
	}, models.ProvenanceMetaTag
}

// productFromLD maps a schema.org Product object to a record.
func productFromLD(obj map[string]any) *models.ProductRecord {
	rec := &models.ProductRecord{Currency: "JPY"}
	rec.Title = normalize.Text(strAt(obj, "name"))
	rec.Brand = normalize.Text(brandName(obj["brand"]))
	rec.Description = normalize.Text(strAt(obj, "description"))

	if offer := firstOffer(obj["offers"]); offer != nil {
		amount := amountFromAny(anyAt(offer, "price"))
		rec.SetPrice(amount)
		if cur := strAt(offer, "priceCurrency"); cur != "" {
			rec.Currency = cur
		}
	}
	return rec
}

// bestHydrationCandidate walks every parseable JSON block for objects that
// look product-shaped and keeps the highest-scoring one.
func bestHydrationCandidate(blocks []string) *models.ProductRecord {
	var best *models.ProductRecord
	bestScore := 0.0

	for _, block := range blocks {
		var root any
		if err := json.Unmarshal([]byte(block), &root); err != nil {
			continue
		}
		walkBFS(root, func(obj map[string]any) bool {
			name := strAt(obj, "name", "title", "productName")
			brand := brandName(obj["brand"])
			desc := strAt(obj, "description", "body", "summary")

			price := amountFromAny(anyAt(obj, "price"))
			if price == 0 {
				if offer := firstOffer(obj["offers"]); offer != nil {
					price = amountFromAny(anyAt(offer, "price"))
				}
			}

			if name == "" && brand == "" && price == 0 && desc == "" {
				return false
			}

			score := candidateScore(name, price)
			if score > bestScore {
				bestScore = score
				rec := &models.ProductRecord{
					Title:       normalize.Text(name),
					Brand:       normalize.Text(brand),
					Currency:    "JPY",
					Description: normalize.Text(desc),
				}
				rec.SetPrice(price)
				best = rec
			}
			return false
		})
	}
	return best
}

// candidateScore combines capped title length with the log of the price
// magnitude, so a named object with a real price beats a bare label or a
// tiny fee amount.
func candidateScore(title string, price int) float64 {
	titleLen := len([]rune(title))
	if titleLen > 80 {
		titleLen = 80
	}
	score := float64(titleLen)
	if price > 0 {
		score += math.Log1p(float64(price))
	}
	return score
}

// amountFromAny coerces a JSON price value (string or number) to an integer
// amount.
func amountFromAny(v any) int {
	switch p := v.(type) {
	case string:
		return normalize.Amount(p)
	case float64:
		if p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
			return 0
		}
		return int(math.Round(p))
	}
	return 0
}
