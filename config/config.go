package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultUserAgent is a current desktop Chrome UA string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Fetch   FetchConfig
	Extract ExtractConfig
	Batch   BatchConfig
	Cache   CacheConfig
	Log     LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// FetchConfig controls the outbound page fetch.
type FetchConfig struct {
	// Timeout is the hard deadline for the whole fetch, redirects included.
	Timeout time.Duration // default: 10s

	// MaxBodyBytes caps how much of the response body is read.
	MaxBodyBytes int64 // default: 10 MiB

	// MaxRedirects is the redirect hop limit.
	MaxRedirects int // default: 10

	// UserAgent is sent with every page request.
	UserAgent string

	// Proxy is an optional http(s) proxy URL.
	Proxy string
}

// ExtractConfig holds the fallback values substituted for missing fields.
type ExtractConfig struct {
	PlaceholderImage string
	DefaultTitle     string
	MaxTitleLen      int // default: 255
	MaxDescLen       int // default: 500

	// PriceSelectors overrides the built-in price selector list. Order is
	// precedence. Empty means use the built-in list.
	PriceSelectors []string

	// DefaultCategory tags products whose request names no category.
	DefaultCategory string // default: "other"
}

// BatchConfig bounds batch scraping.
type BatchConfig struct {
	// Concurrency is the number of pages fetched at once per batch.
	Concurrency int // default: 5

	// MaxURLs is the largest accepted batch.
	MaxURLs int // default: 100

	// JobTTL is how long finished jobs stay queryable.
	JobTTL time.Duration // default: 1h
}

// CacheConfig controls the product response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached products.
	MaxEntries int // default: 1000
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
			Host: envOr("SHELFSCRAPE_HOST", "0.0.0.0"),
			Port: envIntOr("SHELFSCRAPE_PORT", 8080),
			Mode: envOr("SHELFSCRAPE_MODE", "release"),
		},
		Fetch: FetchConfig{
			Timeout:      envDurationOr("SHELFSCRAPE_FETCH_TIMEOUT", 10*time.Second),
			MaxBodyBytes: int64(envIntOr("SHELFSCRAPE_MAX_BODY_BYTES", 10<<20)),
			MaxRedirects: envIntOr("SHELFSCRAPE_MAX_REDIRECTS", 10),
			UserAgent:    envOr("SHELFSCRAPE_USER_AGENT", DefaultUserAgent),
			Proxy:        os.Getenv("SHELFSCRAPE_PROXY"),
		},
		Extract: ExtractConfig{
			PlaceholderImage: envOr("SHELFSCRAPE_PLACEHOLDER_IMAGE", "https://via.placeholder.com/400x400?text=No+Image+Available"),
			DefaultTitle:     envOr("SHELFSCRAPE_DEFAULT_TITLE", "Unknown Product"),
			MaxTitleLen:      envIntOr("SHELFSCRAPE_MAX_TITLE_LEN", 255),
			MaxDescLen:       envIntOr("SHELFSCRAPE_MAX_DESCRIPTION_LEN", 500),
			PriceSelectors:   envSliceOr("SHELFSCRAPE_PRICE_SELECTORS", nil),
			DefaultCategory:  envOr("SHELFSCRAPE_DEFAULT_CATEGORY", "other"),
		},
		Batch: BatchConfig{
			Concurrency: envIntOr("SHELFSCRAPE_BATCH_CONCURRENCY", 5),
			MaxURLs:     envIntOr("SHELFSCRAPE_BATCH_MAX_URLS", 100),
			JobTTL:      envDurationOr("SHELFSCRAPE_BATCH_JOB_TTL", time.Hour),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("SHELFSCRAPE_CACHE_MAX_ENTRIES", 1000),
		},
		Log: LogConfig{
			Level:  envOr("SHELFSCRAPE_LOG_LEVEL", "info"),
			Format: envOr("SHELFSCRAPE_LOG_FORMAT", "json"),
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
