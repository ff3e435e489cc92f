package extract

import (
	"regexp"

	"github.com/use-agent/itemscope/models"
	"github.com/use-agent/itemscope/normalize"
)

// yenPattern matches glyph-prefixed amounts like "¥8,500" or "￥ 12000".
// Two digits minimum so stray "¥1" artifacts are ignored.
var yenPattern = regexp.MustCompile(`[¥￥]\s?([\d,]{2,})`)

// paragraphSplit separates text into paragraph-ish chunks on runs of two or
// more whitespace characters (blank lines included).
var paragraphSplit = regexp.MustCompile(`\s{2,}`)

// MaxYenAmount scans text for yen-prefixed amounts and returns the largest
// one at or above minAmount. The maximum is the plausibility heuristic:
// shipping fees and point balances are small, the item price is typically
// the largest amount on the page. Returns 0 when nothing qualifies.
func MaxYenAmount(text string, minAmount int) int {
	best := 0
	for _, m := range yenPattern.FindAllStringSubmatch(text, -1) {
		n := normalize.Amount(m[1])
		if n >= minAmount && n > best {
			best = n
		}
	}
	return best
}

// TitleFallback walks the title fallback chain: first heading, then the
// document title, then og:title. A title matching the site's generic
// placeholder pattern is rejected and the chain continues.
func TitleFallback(doc Document, site *Site) string {
	for _, candidate := range []string{
		doc.FirstHeading(),
		doc.Title(),
		doc.MetaContent("og:title"),
	} {
		t := normalize.Text(candidate)
		if t != "" && !site.IsGenericTitle(t) {
			return t
		}
	}
	return ""
}

// LongestParagraph returns the longest paragraph of at least minLen runes,
// rejecting short UI labels. Returns "" when nothing is long enough.
func LongestParagraph(text string, minLen int) string {
	best := ""
	bestLen := 0
	for _, p := range paragraphSplit.Split(text, -1) {
		t := normalize.Text(p)
		if n := len([]rune(t)); n >= minLen && n > bestLen {
			best = t
			bestLen = n
		}
	}
	return best
}

// DescriptionFallback tries the site's labeled description section first,
// then falls back to the longest paragraph of the visible text.
func DescriptionFallback(doc Document, site *Site, minLen int) string {
	if len(site.DescriptionLabels) > 0 {
		if s := normalize.Text(doc.SectionAfter(site.DescriptionLabels, site.SectionLabels)); len([]rune(s)) >= minLen {
			return s
		}
	}
	return LongestParagraph(doc.BodyText(), minLen)
}

// ScanText runs the text-pattern fallbacks over a document and fills the
// given record's absent fields in place. Returns true when any field was
// supplied by the scan.
func ScanText(doc Document, site *Site, rec *models.ProductRecord, minPrice, minDescLen int) bool {
	filled := false

	if !rec.HasPrice() {
		if amount := MaxYenAmount(doc.BodyText(), minPrice); amount > 0 {
			rec.SetPrice(amount)
			filled = true
		}
	}
	if rec.Title == "" {
		if t := TitleFallback(doc, site); t != "" {
			rec.Title = t
			filled = true
		}
	}
	if rec.Description == "" {
		if d := DescriptionFallback(doc, site, minDescLen); d != "" {
			rec.Description = d
			filled = true
		}
	}
	return filled
}
