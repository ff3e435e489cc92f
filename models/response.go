package models

// ScrapeResult is the final externally-visible outcome of one scrape.
type ScrapeResult struct {
	// OK indicates the extraction produced an accepted record.
	OK bool `json:"ok"`

	// URL echoes the requested item page.
	URL string `json:"url"`

	// Via reports which strategy produced Data: "direct" or "rendered".
	Via Strategy `json:"via"`

	// Data is the extracted record. On failure it may still carry the
	// best-effort partial fields from the last attempt.
	Data *ProductRecord `json:"data,omitempty"`

	// Provenance reports the technique that supplied the record.
	Provenance Provenance `json:"provenance,omitempty"`

	// Error is a machine-readable reason string, set only when OK is false.
	Error string `json:"error,omitempty"`
}

// ScrapeBothResult is the response for POST /api/v1/scrape/both.
type ScrapeBothResult struct {
	OK     bool          `json:"ok"`
	Merged *MergedRecord `json:"merged,omitempty"`

	// SourceStatus reports per-source outcome: "ok" or a failure reason.
	SourceStatus map[string]string `json:"source_status"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// ScrapeResponse wraps a ScrapeResult for the HTTP layer; Error carries the
// structured detail when the request failed before any strategy ran.
type ScrapeResponse struct {
	Success bool          `json:"success"`
	Result  *ScrapeResult `json:"result,omitempty"`
	Error   *ErrorDetail  `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string       `json:"status"` // "healthy" or "degraded"
	Uptime  string       `json:"uptime"`
	Session SessionStats `json:"session"`
	Version string       `json:"version"`
}

// WarmupResponse is the response for POST /api/v1/warmup.
type WarmupResponse struct {
	OK     bool         `json:"ok"`
	Warmed bool         `json:"warmed"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// Session states reported by SessionStats.
const (
	SessionAbsent    = "absent"
	SessionLaunching = "launching"
	SessionReady     = "ready"
)

// SessionStats reports the shared browser session's state.
type SessionStats struct {
	// State is one of "absent", "launching", "ready".
	State string `json:"state"`

	// AgeSeconds is how long the current session has been up; zero when absent.
	AgeSeconds int64 `json:"age_seconds"`
}
