package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Gate      GateConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the shared Rod browser session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Proxy is the outbound proxy template. A "{session}" placeholder is
	// replaced with a random token at every launch, so rotating the
	// session rotates the outbound identity.
	Proxy string

	// RotateInterval relaunches the browser (with a fresh proxy session)
	// once the running session is older than this. Zero disables rotation.
	// Only meaningful when Proxy is set. Default: 10m.
	RotateInterval time.Duration
}

// ScraperConfig controls the extraction cascade.
type ScraperConfig struct {
	// FetchTimeout bounds the direct HTTP fetch. Default: 7s.
	FetchTimeout time.Duration

	// NavTimeout bounds a rendered navigation. Default: 25s.
	NavTimeout time.Duration

	// MaxTimeout caps the per-request timeout accepted from clients.
	// Default: 120s.
	MaxTimeout time.Duration

	// BothJobTimeout bounds each pipeline of a dual-target scrape.
	// Default: 18s.
	BothJobTimeout time.Duration

	// BothTotalTimeout bounds the whole dual-target operation. Default: 30s.
	BothTotalTimeout time.Duration

	// DirectFirst runs the direct fetch before the rendered path even when
	// the request does not ask for quick mode. Default: true.
	DirectFirst bool

	// DirectOnly disables the rendered path service-wide. Default: false.
	DirectOnly bool

	// BlockedResourceTypes lists resource types the rendered path blocks.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// GateConfig controls the result quality gate. The thresholds vary by
// site and over time, so they are tunable rather than hard-coded.
type GateConfig struct {
	// MinPlausiblePrice rejects amounts below this as shipping/fee noise.
	// Default: 1000.
	MinPlausiblePrice int

	// RequireDescription additionally rejects records with no description.
	// Default: false.
	RequireDescription bool

	// MinDescriptionLength rejects description candidates shorter than
	// this (filters UI labels). Default: 80.
	MinDescriptionLength int
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys. Empty means open access.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("ITEMSCOPE_HOST", "0.0.0.0"),
			Port: envIntOr("ITEMSCOPE_PORT", 8080),
			Mode: envOr("ITEMSCOPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:       envBoolOr("ITEMSCOPE_HEADLESS", true),
			NoSandbox:      envBoolOr("ITEMSCOPE_NO_SANDBOX", false),
			BrowserBin:     os.Getenv("ITEMSCOPE_BROWSER_BIN"),
			Proxy:          os.Getenv("ITEMSCOPE_PROXY"),
			RotateInterval: envDurationOr("ITEMSCOPE_PROXY_ROTATE", 10*time.Minute),
		},
		Scraper: ScraperConfig{
			FetchTimeout:     envDurationOr("ITEMSCOPE_FETCH_TIMEOUT", 7*time.Second),
			NavTimeout:       envDurationOr("ITEMSCOPE_NAV_TIMEOUT", 25*time.Second),
			MaxTimeout:       envDurationOr("ITEMSCOPE_MAX_TIMEOUT", 120*time.Second),
			BothJobTimeout:   envDurationOr("ITEMSCOPE_BOTH_JOB_TIMEOUT", 18*time.Second),
			BothTotalTimeout: envDurationOr("ITEMSCOPE_BOTH_TOTAL_TIMEOUT", 30*time.Second),
			DirectFirst:      envBoolOr("ITEMSCOPE_DIRECT_FIRST", true),
			DirectOnly:       envBoolOr("ITEMSCOPE_DIRECT_ONLY", false),
			BlockedResourceTypes: envSliceOr("ITEMSCOPE_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Gate: GateConfig{
			MinPlausiblePrice:    envIntOr("ITEMSCOPE_MIN_PRICE", 1000),
			RequireDescription:   envBoolOr("ITEMSCOPE_REQUIRE_DESCRIPTION", false),
			MinDescriptionLength: envIntOr("ITEMSCOPE_MIN_DESCRIPTION_LEN", 80),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("ITEMSCOPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("ITEMSCOPE_RATE_RPS", 5.0),
			Burst:             envIntOr("ITEMSCOPE_RATE_BURST", 10),
		},
		Log: LogConfig{
			Level:  envOr("ITEMSCOPE_LOG_LEVEL", "info"),
			Format: envOr("ITEMSCOPE_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
