package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	readability "github.com/go-shiori/go-readability"
)

// mdConverter is goroutine-safe and reused across requests.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// MainContentText runs the Readability algorithm on a page and returns its
// main-content plain text. Used on manufacturer pages, where descriptions
// live in an article body rather than behind a known selector. Returns ""
// when readability fails or finds nothing substantial.
func MainContentText(rawHTML, sourceURL string, minLen int) string {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		slog.Debug("readability extraction failed", "url", sourceURL, "error", err)
		return ""
	}
	text := strings.TrimSpace(article.TextContent)
	if len([]rune(text)) < minLen {
		return ""
	}
	return text
}

// DescriptionMarkdown converts a description element's inner HTML to
// markdown so seller-authored line breaks and lists survive the trip
// through a single string field. Falls back to "" on conversion failure;
// callers then use the plain-text selector path.
func DescriptionMarkdown(innerHTML string) string {
	if strings.TrimSpace(innerHTML) == "" {
		return ""
	}
	md, err := mdConverter.ConvertString(innerHTML)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}
