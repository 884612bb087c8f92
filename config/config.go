package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Browser BrowserConfig
	Scraper ScraperConfig
	Site    SiteConfig
	Auth    AuthConfig
	CORS    CORSConfig
	Drift   DriftConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 5005
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// DefaultProxy is the proxy URL for all page loads.
	DefaultProxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// Stealth injects the go-rod/stealth evasions before every navigation.
	Stealth bool // default: true
}

// ScraperConfig controls how a note page is rendered.
type ScraperConfig struct {
	// RenderMode selects the renderer: "browser" (headless Chrome) or
	// "http" (plain fetch, no JavaScript).
	RenderMode string // default: "browser"

	// NavigationTimeout bounds the page load. Exceeding it fails the request.
	NavigationTimeout time.Duration // default: 30s

	// SettleDelay is waited after the document loads so client-side
	// rendering can finish before the fields are read.
	SettleDelay time.Duration // default: 3s

	// BlockedResourceTypes lists resource types the browser never fetches.
	// default: ["Font", "Media"]
	BlockedResourceTypes []string

	// RulesFile optionally replaces the built-in selector table (JSON).
	RulesFile string
}

// SiteConfig pins the target site.
type SiteConfig struct {
	// Host is used to rebuild canonical note URLs.
	Host string // default: "www.xiaohongshu.com"

	// CookieDomain scopes every session cookie.
	CookieDomain string // default: ".xiaohongshu.com"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of accepted keys. Empty disables authentication.
	APIKeys []string
}

// CORSConfig controls cross-origin access.
type CORSConfig struct {
	// AllowOrigins lists allowed origins; "*" allows any.
	AllowOrigins []string // default: ["*"]
}

// DriftConfig controls layout drift reporting.
type DriftConfig struct {
	// Reference is the hex fingerprint of a known-good note page.
	Reference string

	// Threshold is the Hamming distance that counts as drift.
	Threshold int // default: 12
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory, if present, is loaded first and
// never overrides variables that are already set.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Host: envOr("XHS_HOST", "0.0.0.0"),
			Port: envIntOr("XHS_PORT", 5005),
			Mode: envOr("XHS_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:     envBoolOr("XHS_HEADLESS", true),
			DefaultProxy: os.Getenv("XHS_PROXY"),
			NoSandbox:    envBoolOr("XHS_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("XHS_BROWSER_BIN"),
			Stealth:      envBoolOr("XHS_STEALTH", true),
		},
		Scraper: ScraperConfig{
			RenderMode:        envOr("XHS_RENDER_MODE", "browser"),
			NavigationTimeout: envDurationOr("XHS_NAV_TIMEOUT", 30*time.Second),
			SettleDelay:       envDurationOr("XHS_SETTLE_DELAY", 3*time.Second),
			BlockedResourceTypes: envSliceOr("XHS_BLOCKED_RESOURCES", []string{
				"Font", "Media",
			}),
			RulesFile: os.Getenv("XHS_RULES_FILE"),
		},
		Site: SiteConfig{
			Host:         envOr("XHS_SITE_HOST", "www.xiaohongshu.com"),
			CookieDomain: envOr("XHS_COOKIE_DOMAIN", ".xiaohongshu.com"),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("XHS_API_KEYS", nil),
		},
		CORS: CORSConfig{
			AllowOrigins: envSliceOr("XHS_CORS_ORIGINS", []string{"*"}),
		},
		Drift: DriftConfig{
			Reference: os.Getenv("XHS_LAYOUT_FINGERPRINT"),
			Threshold: envIntOr("XHS_DRIFT_THRESHOLD", 12),
		},
		Log: LogConfig{
			Level:  envOr("XHS_LOG_LEVEL", "info"),
			Format: envOr("XHS_LOG_FORMAT", "json"),
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
