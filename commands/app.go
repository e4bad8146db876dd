package commands

import (
	"context"
	"fmt"

	"realestate-agent/agents"
	"realestate-agent/cache"
	"realestate-agent/config"
	"realestate-agent/health"
	"realestate-agent/llm"
	"realestate-agent/pipeline"
	"realestate-agent/scraper/browser"
	"realestate-agent/scraper/firecrawl"
	"realestate-agent/services"
	"realestate-agent/storage"
	"realestate-agent/utils"
)

// app is the fully wired process: one of each gateway plus the pipeline.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	store    *storage.Store
	cache    *cache.Redis
	insights *services.InsightService
	pipeline *pipeline.Pipeline
}

func newApp(ctx context.Context, o *config.Overrides) (*app, error) {
	cfg := config.Load()
	cfg.Apply(*o)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := utils.NewLoggerWithLevel(cfg.LogLevel)

	store, err := storage.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}

	rc := cache.New(ctx, cfg.RedisURL, cfg.EnableCache, cfg.CacheConnectTimeout(), logger)

	if cfg.GeminiAPIKey == "" {
		logger.Warn("[config] GEMINI_API_KEY is not set; analyses will use fallback text")
	}
	insights := services.NewInsightService(logger)
	analyst := agents.NewAnalyst(
		llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ModelTimeout()),
		insights, cfg.ModelTimeout(), logger,
	)

	scr := newScraper(cfg, analyst, services.NewCleaner(logger), logger)
	pool := utils.NewWorkerPool(cfg.MaxConcurrency, 0)
	ttl := pipeline.TTLs{Search: cfg.SearchTTL(), Analysis: cfg.AnalysisTTL(), Trends: cfg.TrendsTTL()}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		cache:    rc,
		insights: insights,
		pipeline: pipeline.New(rc, scr, analyst, store, pool, ttl, logger),
	}, nil
}

// newScraper picks the scrape backend. auto prefers Firecrawl and falls
// back to the headless browser when no Firecrawl key is configured.
func newScraper(cfg *config.Config, ex browser.Extractor, cleaner *services.Cleaner, logger *utils.Logger) pipeline.Scraper {
	backend := cfg.ScrapeBackend
	if backend == config.BackendAuto {
		backend = config.BackendFirecrawl
		if cfg.FirecrawlAPIKey == "" {
			backend = config.BackendBrowser
		}
	}

	if backend == config.BackendBrowser {
		logger.Debug("[config] Using headless browser scrape backend")
		return browser.New(cfg.ChromeBin, cfg.MaxProperties, cfg.ScrapeTimeout(), ex, cleaner, logger)
	}
	logger.Debug("[config] Using Firecrawl scrape backend")
	return firecrawl.New(cfg.FirecrawlAPIKey, cfg.MaxProperties, cfg.ScrapeTimeout(), cleaner, logger)
}

func (a *app) healthChecker() *health.Checker {
	return health.NewChecker(a.store, a.cache, a.cfg.EnableCache, a.cfg.LogLevel)
}

func (a *app) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("[cache] Close: %v", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("[storage] Close: %v", err)
	}
}
