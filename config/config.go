package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	GeminiAPIKey    string
	GeminiModel     string
	FirecrawlAPIKey string

	DatabaseURL string

	RedisURL              string
	EnableCache           bool
	CacheTTLSearchSec     int
	CacheTTLAnalysisSec   int
	CacheTTLTrendsSec     int
	CacheConnectTimeoutMs int

	LogLevel string

	MaxConcurrency   int
	ScrapeBackend    string
	ScrapeTimeoutSec int
	ModelTimeoutSec  int
	MaxProperties    int
	ChromeBin        string

	HTTPPort        string
	RefreshSchedule string
	RefreshSearches int
	CSVOutputPath   string
}

// Scrape backends accepted by SCRAPE_BACKEND.
const (
	BackendFirecrawl = "firecrawl"
	BackendBrowser   = "browser"
	BackendAuto      = "auto"
)

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		FirecrawlAPIKey: getEnv("FIRECRAWL_API_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", "sqlite://./real_estate.db"),

		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379/0"),
		EnableCache:           getEnvBool("ENABLE_CACHE", true),
		CacheTTLSearchSec:     getEnvInt("CACHE_TTL_SEARCH", 3600),
		CacheTTLAnalysisSec:   getEnvInt("CACHE_TTL_ANALYSIS", 86400),
		CacheTTLTrendsSec:     getEnvInt("CACHE_TTL_TRENDS", 43200),
		CacheConnectTimeoutMs: getEnvInt("CACHE_CONNECT_TIMEOUT_MS", 2000),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 4),
		ScrapeBackend:    strings.ToLower(getEnv("SCRAPE_BACKEND", BackendAuto)),
		ScrapeTimeoutSec: getEnvInt("SCRAPE_TIMEOUT_SECONDS", 120),
		ModelTimeoutSec:  getEnvInt("MODEL_TIMEOUT_SECONDS", 60),
		MaxProperties:    getEnvInt("MAX_PROPERTIES", 10),
		ChromeBin:        getEnv("CHROME_BIN", ""),

		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RefreshSchedule: getEnv("REFRESH_SCHEDULE", "@every 6h"),
		RefreshSearches: getEnvInt("REFRESH_SEARCHES", 5),
		CSVOutputPath:   getEnv("CSV_OUTPUT_PATH", "./output/properties.csv"),
	}
}

// Overrides carries values supplied explicitly by the caller (CLI flags or
// an interactive session). Empty fields leave the loaded value untouched.
type Overrides struct {
	GeminiAPIKey    string
	FirecrawlAPIKey string
	DatabaseURL     string
	RedisURL        string
	LogLevel        string
	ScrapeBackend   string
	DisableCache    bool
}

// Apply layers explicit overrides on top of the environment-derived values.
func (c *Config) Apply(o Overrides) {
	if o.GeminiAPIKey != "" {
		c.GeminiAPIKey = o.GeminiAPIKey
	}
	if o.FirecrawlAPIKey != "" {
		c.FirecrawlAPIKey = o.FirecrawlAPIKey
	}
	if o.DatabaseURL != "" {
		c.DatabaseURL = o.DatabaseURL
	}
	if o.RedisURL != "" {
		c.RedisURL = o.RedisURL
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.ScrapeBackend != "" {
		c.ScrapeBackend = strings.ToLower(o.ScrapeBackend)
	}
	if o.DisableCache {
		c.EnableCache = false
	}
}

// Validate reports settings that would make the process misbehave.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.CacheTTLSearchSec <= 0 || c.CacheTTLAnalysisSec <= 0 || c.CacheTTLTrendsSec <= 0 {
		return fmt.Errorf("cache TTLs must be positive (search=%d analysis=%d trends=%d)",
			c.CacheTTLSearchSec, c.CacheTTLAnalysisSec, c.CacheTTLTrendsSec)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("MAX_CONCURRENCY must be a positive integer, got %d", c.MaxConcurrency)
	}
	if c.MaxProperties < 1 {
		return fmt.Errorf("MAX_PROPERTIES must be a positive integer, got %d", c.MaxProperties)
	}
	switch c.ScrapeBackend {
	case BackendFirecrawl, BackendBrowser, BackendAuto:
	default:
		return fmt.Errorf("SCRAPE_BACKEND must be one of firecrawl, browser, auto; got %q", c.ScrapeBackend)
	}
	return nil
}

// SearchTTL is the lifetime of a cached search result.
func (c *Config) SearchTTL() time.Duration {
	return time.Duration(c.CacheTTLSearchSec) * time.Second
}

// AnalysisTTL is the lifetime of a cached investment analysis.
func (c *Config) AnalysisTTL() time.Duration {
	return time.Duration(c.CacheTTLAnalysisSec) * time.Second
}

// TrendsTTL is the lifetime of a cached market-trend result.
func (c *Config) TrendsTTL() time.Duration {
	return time.Duration(c.CacheTTLTrendsSec) * time.Second
}

func (c *Config) CacheConnectTimeout() time.Duration {
	return time.Duration(c.CacheConnectTimeoutMs) * time.Millisecond
}

func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.ScrapeTimeoutSec) * time.Second
}

func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
