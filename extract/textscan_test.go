package extract

import (
	"strings"
	"testing"

	"github.com/use-agent/itemscope/models"
)

func TestMaxYenAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  int
		want int
	}{
		{"picks max over shipping noise", "送料 ¥300 ほか ¥8,500 です", 0, 8500},
		{"below minimum rejected", "¥300 only", 500, 0},
		{"fullwidth glyph", "価格 ￥12,000", 0, 12000},
		{"spaced glyph", "¥ 4,980", 0, 4980},
		{"no amounts", "free shipping today", 0, 0},
		{"single digit ignored", "¥5", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxYenAmount(tt.text, tt.min); got != tt.want {
				t.Errorf("MaxYenAmount(%q, %d) = %d, want %d", tt.text, tt.min, got, tt.want)
			}
		})
	}
}

func TestTitleFallback(t *testing.T) {
	site := Mercari()

	doc := mustParse(t, `<html><head><title>メルカリ - 日本最大のフリマサービス</title></head>
		<body><h1>Real Item Name</h1></body></html>`)
	if got := TitleFallback(doc, site); got != "Real Item Name" {
		t.Errorf("TitleFallback = %q, want h1 text", got)
	}

	// No h1, generic <title>: chain must continue to og:title.
	doc = mustParse(t, `<html><head>
		<title>メルカリ - 日本最大のフリマサービス</title>
		<meta property="og:title" content="OG Item"/>
	</head><body></body></html>`)
	if got := TitleFallback(doc, site); got != "OG Item" {
		t.Errorf("TitleFallback = %q, want og:title", got)
	}

	// Everything generic: no title at all.
	doc = mustParse(t, `<html><head><title>Mercari</title></head><body></body></html>`)
	if got := TitleFallback(doc, site); got != "" {
		t.Errorf("TitleFallback = %q, want empty for all-generic chain", got)
	}
}

func TestLongestParagraph(t *testing.T) {
	long := strings.Repeat("とても長い説明文です。", 10)
	text := "短いラベル\n\n" + long + "\n\nカート"
	if got := LongestParagraph(text, 80); got != long {
		t.Errorf("LongestParagraph picked %q", got)
	}
	if got := LongestParagraph("short\n\nbits", 80); got != "" {
		t.Errorf("LongestParagraph = %q, want empty below threshold", got)
	}
}

func TestSectionAfterDescription(t *testing.T) {
	long1 := strings.Repeat("状態は良好です。", 8)
	long2 := strings.Repeat("喫煙環境なし。", 8)
	doc := mustParse(t, `<html><body>
		<h2>商品の説明</h2>
		<p>`+long1+`</p>
		<p>`+long2+`</p>
		<h2>商品の情報</h2>
		<p>カテゴリー</p>
	</body></html>`)

	got := DescriptionFallback(doc, Mercari(), 40)
	if !strings.Contains(got, long1) || !strings.Contains(got, long2) {
		t.Errorf("section text missing paragraphs: %q", got)
	}
	if strings.Contains(got, "カテゴリー") {
		t.Errorf("section text leaked past the stop label: %q", got)
	}
}

func TestScanText_FillsAbsentFieldsOnly(t *testing.T) {
	doc := mustParse(t, `<html><head><title>Scanned Title</title></head>
		<body>値段 ¥9,800 送料 ¥300</body></html>`)

	rec := &models.ProductRecord{Title: "Kept Title", Currency: "JPY"}
	if !ScanText(doc, Mercari(), rec, 500, 80) {
		t.Fatal("expected scan to fill the price")
	}
	if rec.Title != "Kept Title" {
		t.Errorf("scan overwrote an existing title: %q", rec.Title)
	}
	if rec.PriceAmount != 9800 {
		t.Errorf("price = %d, want 9800 (maximum amount)", rec.PriceAmount)
	}
	if rec.PriceDisplay != "¥ 9,800" {
		t.Errorf("price display = %q", rec.PriceDisplay)
	}
}
