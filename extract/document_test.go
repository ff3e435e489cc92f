package extract

import (
	"strings"
	"testing"
)

func TestSelectText_OrderAndFallback(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<h1>Plain Heading</h1>
		<div data-testid="name">  Selector   Title </div>
	</body></html>`)

	got := doc.SelectText([]string{`[data-testid="name"]`, `h1`})
	if got != "Selector Title" {
		t.Errorf("SelectText = %q, want normalized first-selector match", got)
	}

	got = doc.SelectText([]string{`[data-testid="missing"]`, `h1`})
	if got != "Plain Heading" {
		t.Errorf("SelectText fallback = %q, want h1 text", got)
	}

	if got := doc.SelectText([]string{`[((bad selector`}); got != "" {
		t.Errorf("invalid selector should be skipped, got %q", got)
	}
}

func TestScriptBlocks(t *testing.T) {
	doc := mustParse(t, `<html><head>
		<script type="application/ld+json">{"a":1}</script>
		<script type="application/json">{"b":2}</script>
		<script>var plain = true;</script>
	</head></html>`)

	ld := doc.ScriptBlocks("application/ld+json")
	if len(ld) != 1 || !strings.Contains(ld[0], `"a":1`) {
		t.Errorf("ld+json blocks = %v", ld)
	}
	if n := len(doc.ScriptBlocks("application/json")); n != 1 {
		t.Errorf("json blocks = %d, want 1", n)
	}
	if n := len(doc.ScriptBlocks("text/template")); n != 0 {
		t.Errorf("unexpected blocks for unknown type: %d", n)
	}
}

func TestMetaContent_PropertyAndName(t *testing.T) {
	doc := mustParse(t, `<html><head>
		<meta property="og:title" content="By Property"/>
		<meta name="description" content="By Name"/>
	</head></html>`)

	if got := doc.MetaContent("og:title"); got != "By Property" {
		t.Errorf("MetaContent(og:title) = %q", got)
	}
	if got := doc.MetaContent("description"); got != "By Name" {
		t.Errorf("MetaContent(description) = %q", got)
	}
	if got := doc.MetaContent("og:image"); got != "" {
		t.Errorf("MetaContent(missing) = %q, want empty", got)
	}
}

func TestListItemsAfter(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<h2>仕様</h2>
		<ul><li>重量: 500g</li><li>幅: 30cm</li></ul>
		<h2>サポート</h2>
		<ul><li>問い合わせ窓口</li></ul>
	</body></html>`)

	items := doc.ListItemsAfter([]string{"仕様"}, 10)
	if len(items) != 2 {
		t.Fatalf("items = %v, want 2 entries before the next heading", items)
	}
	if items[0] != "重量: 500g" || items[1] != "幅: 30cm" {
		t.Errorf("items = %v", items)
	}

	if items := doc.ListItemsAfter([]string{"仕様"}, 1); len(items) != 1 {
		t.Errorf("max not honored: %v", items)
	}
}

func TestBodyText_SkipsHeadAndScripts(t *testing.T) {
	doc := mustParse(t, `<html><head><title>Head Title</title>
		<script>var hidden = 1;</script></head>
		<body><p>visible</p><script>var alsoHidden = 2;</script></body></html>`)

	text := doc.BodyText()
	if !strings.Contains(text, "visible") {
		t.Errorf("body text missing visible content: %q", text)
	}
	if strings.Contains(text, "Head Title") || strings.Contains(text, "hidden") {
		t.Errorf("body text leaked head/script content: %q", text)
	}
}
