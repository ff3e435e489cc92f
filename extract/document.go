// Package extract implements the extraction cascade's locators: structured
// product metadata, embedded JSON payloads, meta tags, and raw-text pattern
// scanning, plus the quality gate that decides whether a candidate record
// can be trusted.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/use-agent/itemscope/normalize"
)

// Document abstracts a product page for the locators. The direct path backs
// it with parsed static HTML; the rendered path backs it with a live page.
type Document interface {
	// ScriptBlocks returns the text of every <script> whose declared type
	// equals declaredType (e.g. "application/ld+json").
	ScriptBlocks(declaredType string) []string

	// MetaContent returns the content attribute of the first meta tag whose
	// property (or name) attribute equals prop, or "".
	MetaContent(prop string) string

	// Title returns the document title text.
	Title() string

	// FirstHeading returns the first h1 text, or "".
	FirstHeading() string

	// BodyText returns the page's visible text with markup stripped.
	BodyText() string

	// SelectText returns the normalized text of the first element matching
	// any of the CSS selectors, tried in order.
	SelectText(selectors []string) string

	// SectionAfter locates a heading matching one of startLabels and
	// concatenates the text of its following siblings until a heading
	// matching stopLabels (or another startLabel) is reached.
	SectionAfter(startLabels, stopLabels []string) string
}

// HTMLDocument is the static-markup Document implementation used by the
// direct fetch path.
type HTMLDocument struct {
	root *html.Node
	doc  *goquery.Document
}

// ParseHTML parses raw markup into an HTMLDocument. The parser is lenient,
// so this only fails on reader-level errors.
func ParseHTML(raw string) (*HTMLDocument, error) {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return &HTMLDocument{root: root, doc: goquery.NewDocumentFromNode(root)}, nil
}

func (d *HTMLDocument) ScriptBlocks(declaredType string) []string {
	var blocks []string
	d.doc.Find("script[type='" + declaredType + "']").Each(func(_ int, s *goquery.Selection) {
		if txt := strings.TrimSpace(s.Text()); txt != "" {
			blocks = append(blocks, txt)
		}
	})
	return blocks
}

func (d *HTMLDocument) MetaContent(prop string) string {
	sel := d.doc.Find("meta[property='" + prop + "'], meta[name='" + prop + "']").First()
	return normalize.Text(sel.AttrOr("content", ""))
}

func (d *HTMLDocument) Title() string {
	return normalize.Text(d.doc.Find("title").First().Text())
}

func (d *HTMLDocument) FirstHeading() string {
	return normalize.Text(d.doc.Find("h1").First().Text())
}

// blockElements end a paragraph when BodyText crosses them.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"li": true, "ul": true, "ol": true, "dl": true, "dt": true, "dd": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "tr": true, "br": true, "blockquote": true, "figure": true,
}

// BodyText walks the <body> subtree collecting text outside of
// script/style/noscript subtrees. Block element boundaries become blank
// lines so paragraph-level scanning sees the page's visual structure.
func (d *HTMLDocument) BodyText() string {
	start := d.root
	if body := d.doc.Find("body").First(); body.Length() > 0 {
		start = body.Nodes[0]
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		if n.Type == html.TextNode {
			if txt := strings.TrimSpace(n.Data); txt != "" {
				b.WriteString(txt)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteString("\n")
		}
	}
	walk(start)
	return b.String()
}

// SelectText matches each selector with cascadia against the parsed tree
// and returns the first non-empty normalized text.
func (d *HTMLDocument) SelectText(selectors []string) string {
	for _, raw := range selectors {
		sel, err := cascadia.Parse(raw)
		if err != nil {
			continue
		}
		node := cascadia.Query(d.root, sel)
		if node == nil {
			continue
		}
		if txt := normalize.Text(nodeText(node)); txt != "" {
			return txt
		}
	}
	return ""
}

// SelectHTML returns the inner HTML of the first element matching any of
// the selectors. Used when downstream wants to preserve block structure
// (e.g. markdown conversion of a description).
func (d *HTMLDocument) SelectHTML(selectors []string) string {
	for _, raw := range selectors {
		sel, err := cascadia.Parse(raw)
		if err != nil {
			continue
		}
		if node := cascadia.Query(d.root, sel); node != nil {
			h, err := goquery.NewDocumentFromNode(node).Html()
			if err == nil && strings.TrimSpace(h) != "" {
				return h
			}
		}
	}
	return ""
}

func (d *HTMLDocument) SectionAfter(startLabels, stopLabels []string) string {
	var parts []string
	d.doc.Find("h1, h2, h3, h4, dt").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !matchesLabel(h.Text(), startLabels) {
			return true
		}
		for sib := h.Next(); sib.Length() > 0; sib = sib.Next() {
			if isHeadingSelection(sib) &&
				(matchesLabel(sib.Text(), stopLabels) || matchesLabel(sib.Text(), startLabels)) {
				break
			}
			if txt := normalize.Text(sib.Text()); txt != "" {
				parts = append(parts, txt)
			}
		}
		return false
	})
	return strings.Join(parts, "\n")
}

// ListItemsAfter collects list items and table cells following a heading
// that matches one of the labels, stopping at the next heading. Used for
// manufacturer spec/feature sections.
func (d *HTMLDocument) ListItemsAfter(labels []string, max int) []string {
	var items []string
	d.doc.Find("h1, h2, h3, h4, dt").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !matchesLabel(h.Text(), labels) {
			return true
		}
		for sib := h.Next(); sib.Length() > 0 && len(items) < max; sib = sib.Next() {
			if isHeadingSelection(sib) {
				break
			}
			sib.Find("li, td, dd").Each(func(_ int, li *goquery.Selection) {
				if len(items) >= max {
					return
				}
				if txt := normalize.Text(li.Text()); txt != "" {
					items = append(items, txt)
				}
			})
		}
		return false
	})
	return items
}

func matchesLabel(text string, labels []string) bool {
	t := normalize.Text(text)
	if t == "" {
		return false
	}
	for _, l := range labels {
		if strings.Contains(t, l) {
			return true
		}
	}
	return false
}

func isHeadingSelection(s *goquery.Selection) bool {
	if s.Length() == 0 {
		return false
	}
	switch goquery.NodeName(s) {
	case "h1", "h2", "h3", "h4", "dt":
		return true
	}
	return false
}

// nodeText concatenates the text content of a node's subtree.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
