package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the Itemscope API request model.
type scrapeRequest struct {
	URL        string `json:"url"`
	Site       string `json:"site,omitempty"`
	Quick      *bool  `json:"quick,omitempty"`
	DirectOnly bool   `json:"direct_only,omitempty"`
}

// scrapeBothRequest mirrors the dual-source API request model.
type scrapeBothRequest struct {
	ListingURL string `json:"listing_url,omitempty"`
	MakerURL   string `json:"maker_url,omitempty"`
}

// scrapeResponse mirrors the Itemscope API response model.
type scrapeResponse struct {
	Success bool `json:"success"`
	Result  *struct {
		OK         bool   `json:"ok"`
		URL        string `json:"url"`
		Via        string `json:"via"`
		Provenance string `json:"provenance"`
		Error      string `json:"error"`
		Data       *struct {
			Title        string   `json:"title"`
			Brand        string   `json:"brand"`
			PriceAmount  int      `json:"price_number"`
			PriceDisplay string   `json:"price"`
			Condition    string   `json:"condition"`
			Description  string   `json:"description"`
			Specs        []string `json:"specs"`
			Features     []string `json:"features"`
		} `json:"data"`
	} `json:"result"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// scrapeBothResponse mirrors the dual-source API response model.
type scrapeBothResponse struct {
	OK     bool            `json:"ok"`
	Merged json.RawMessage `json:"merged"`

	SourceStatus map[string]string `json:"source_status"`
	Error        *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("ITEMSCOPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("ITEMSCOPE_API_KEY")

	s := server.NewMCPServer(
		"itemscope",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeItemTool := mcp.NewTool("scrape_item",
		mcp.WithDescription("Extract structured product data (title, price, brand, condition, description) from a Mercari listing or a manufacturer product page. Falls back to a headless browser for JavaScript-rendered pages."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the item page to scrape"),
		),
		mcp.WithString("site",
			mcp.Description("Site adapter: 'mercari' (default) or 'maker' (manufacturer product page)"),
			mcp.Enum("mercari", "maker"),
		),
		mcp.WithBoolean("direct_only",
			mcp.Description("Only use the fast direct HTTP fetch; never start a browser"),
		),
	)
	s.AddTool(scrapeItemTool, handleScrapeItem(apiURL, apiKey))

	scrapePairTool := mcp.NewTool("scrape_pair",
		mcp.WithDescription("Scrape a Mercari listing and the manufacturer's reference page for the same product concurrently, and return one merged record: marketplace price/condition/seller-description plus official brand/specs/features."),
		mcp.WithString("listing_url",
			mcp.Description("The Mercari listing URL"),
		),
		mcp.WithString("maker_url",
			mcp.Description("The manufacturer's product page URL"),
		),
	)
	s.AddTool(scrapePairTool, handleScrapePair(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Itemscope API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleScrapeItem(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		reqBody := scrapeRequest{
			URL:        url,
			Site:       request.GetString("site", ""),
			DirectOnly: request.GetBool("direct_only", false),
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if resp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)), nil
		}
		if resp.Result == nil {
			return mcp.NewToolResultError("empty response from API"), nil
		}
		if !resp.Result.OK {
			return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %s (via %s)", resp.Result.Error, resp.Result.Via)), nil
		}

		d := resp.Result.Data
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Title: %s\n", d.Title))
		if d.Brand != "" {
			sb.WriteString(fmt.Sprintf("Brand: %s\n", d.Brand))
		}
		if d.PriceDisplay != "" {
			sb.WriteString(fmt.Sprintf("Price: %s\n", d.PriceDisplay))
		}
		if d.Condition != "" {
			sb.WriteString(fmt.Sprintf("Condition: %s\n", d.Condition))
		}
		sb.WriteString(fmt.Sprintf("Source: %s (via %s, %s)\n", resp.Result.URL, resp.Result.Via, resp.Result.Provenance))
		if len(d.Specs) > 0 {
			sb.WriteString("\nSpecs:\n")
			for _, spec := range d.Specs {
				sb.WriteString("- " + spec + "\n")
			}
		}
		if d.Description != "" {
			sb.WriteString("\n" + d.Description + "\n")
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleScrapePair(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqBody := scrapeBothRequest{
			ListingURL: request.GetString("listing_url", ""),
			MakerURL:   request.GetString("maker_url", ""),
		}
		if reqBody.ListingURL == "" && reqBody.MakerURL == "" {
			return mcp.NewToolResultError("at least one of listing_url and maker_url is required"), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape/both", reqBody)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var resp scrapeBothResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !resp.OK {
			errMsg := "no source produced a usable record"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(fmt.Sprintf("%s (sources: %v)", errMsg, resp.SourceStatus)), nil
		}

		var prettyMerged bytes.Buffer
		if err := json.Indent(&prettyMerged, resp.Merged, "", "  "); err != nil {
			prettyMerged.Write(resp.Merged)
		}

		var sb strings.Builder
		sb.WriteString("Merged record:\n")
		sb.Write(prettyMerged.Bytes())
		sb.WriteString("\n\nSources:\n")
		for name, status := range resp.SourceStatus {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", name, status))
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}
