package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CACHE_TTL_SEARCH", "")
	t.Setenv("SCRAPE_BACKEND", "")
	t.Setenv("ENABLE_CACHE", "")

	cfg := Load()
	if cfg.SearchTTL() != time.Hour {
		t.Errorf("SearchTTL: got %v, want 1h", cfg.SearchTTL())
	}
	if cfg.ScrapeBackend != BackendAuto {
		t.Errorf("ScrapeBackend: got %q, want %q", cfg.ScrapeBackend, BackendAuto)
	}
	if !cfg.EnableCache {
		t.Error("cache should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CACHE_TTL_TRENDS", "60")
	t.Setenv("ENABLE_CACHE", "false")
	t.Setenv("MAX_CONCURRENCY", "not-a-number")

	cfg := Load()
	if cfg.TrendsTTL() != time.Minute {
		t.Errorf("TrendsTTL: got %v, want 1m", cfg.TrendsTTL())
	}
	if cfg.EnableCache {
		t.Error("ENABLE_CACHE=false should disable the cache")
	}
	if cfg.MaxConcurrency != 4 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.MaxConcurrency)
	}
}

func TestApplyPrecedence(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("FIRECRAWL_API_KEY", "fc-env")

	cfg := Load()
	cfg.Apply(Overrides{GeminiAPIKey: "from-flag", DisableCache: true})

	if cfg.GeminiAPIKey != "from-flag" {
		t.Errorf("explicit override should win, got %q", cfg.GeminiAPIKey)
	}
	if cfg.FirecrawlAPIKey != "fc-env" {
		t.Errorf("empty override should keep env value, got %q", cfg.FirecrawlAPIKey)
	}
	if cfg.EnableCache {
		t.Error("DisableCache override should turn the cache off")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero search ttl", func(c *Config) { c.CacheTTLSearchSec = 0 }},
		{"negative trends ttl", func(c *Config) { c.CacheTTLTrendsSec = -1 }},
		{"no concurrency", func(c *Config) { c.MaxConcurrency = 0 }},
		{"unknown backend", func(c *Config) { c.ScrapeBackend = "selenium" }},
		{"empty database", func(c *Config) { c.DatabaseURL = "" }},
	}

	for _, tt := range tests {
		cfg := Load()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
