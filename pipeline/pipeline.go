// Package pipeline orchestrates a property search: validate, consult the
// cache, scrape, analyze, persist, cache and return. It also hosts the
// user-triggered investment and market-trend flows.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"realestate-agent/agents"
	"realestate-agent/cache"
	"realestate-agent/models"
	"realestate-agent/utils"
)

// Cache is the TTL key-value gateway.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// Scraper is the scrape gateway. It returns an empty list on any failure.
type Scraper interface {
	FetchProperties(ctx context.Context, req models.SearchRequest) []models.Property
}

// Analyst is the analysis gateway. It returns fallback values on failure.
type Analyst interface {
	SummarizeMarket(ctx context.Context, props []models.Property, maxPrice decimal.Decimal) string
	AnalyzeInvestment(ctx context.Context, p models.Property) models.InvestmentResult
	AnalyzeMarketTrend(ctx context.Context, req models.TrendRequest) models.MarketTrendResult
}

// Store is the persistence layer.
type Store interface {
	SaveSearch(ctx context.Context, props []models.Property, h *models.SearchHistory) (int, error)
	GetPropertyByID(ctx context.Context, id uint) (*models.Property, error)
	UpdateProperty(ctx context.Context, id uint, upd models.PropertyUpdate) (*models.Property, error)
	DeleteProperty(ctx context.Context, id uint) error
	CreateInvestmentAnalysis(ctx context.Context, a *models.InvestmentAnalysis) error
}

// TTLs are the cache lifetimes of each flow.
type TTLs struct {
	Search   time.Duration
	Analysis time.Duration
	Trends   time.Duration
}

type Pipeline struct {
	cache   Cache
	scraper Scraper
	analyst Analyst
	store   Store
	pool    *utils.WorkerPool
	ttl     TTLs
	logger  *utils.Logger
}

func New(c Cache, s Scraper, a Analyst, st Store, pool *utils.WorkerPool, ttl TTLs, logger *utils.Logger) *Pipeline {
	return &Pipeline{cache: c, scraper: s, analyst: a, store: st, pool: pool, ttl: ttl, logger: logger}
}

// SearchKey is the cache key of a search request.
func SearchKey(req models.SearchRequest) string {
	return cache.Key("search", map[string]any{
		"city":          req.City,
		"max_price":     req.MaxPriceFloat(),
		"property_type": string(req.PropertyType),
	})
}

// AnalysisKey is the cache key of a property's current investment analysis.
func AnalysisKey(propertyID uint) string {
	return cache.Key("analysis", map[string]any{"property_id": propertyID})
}

// TrendKey is the cache key of a market-trend request.
func TrendKey(req models.TrendRequest) string {
	return cache.Key("trend", map[string]any{
		"city":          req.City,
		"property_type": req.PropertyType,
		"timeframe":     req.Timeframe,
	})
}

// Search runs one orchestrated property search. Only a malformed request
// or a failure to record the search is returned as an error; upstream
// problems surface as an empty property list or a fallback analysis.
func (p *Pipeline) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	return p.search(ctx, req, true)
}

// Refresh runs a search without consulting the cache. A good result
// replaces the cached entry; an empty or fallback one leaves it alone.
func (p *Pipeline) Refresh(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error) {
	return p.search(ctx, req, false)
}

func (p *Pipeline) search(ctx context.Context, req models.SearchRequest, readCache bool) (*models.SearchResult, error) {
	req, err := req.Canonical()
	if err != nil {
		return nil, err
	}

	key := SearchKey(req)
	if readCache {
		var cached models.SearchResult
		if p.cacheGetJSON(ctx, key, &cached) {
			p.logger.Info("[pipeline] Cache hit for %s", key)
			return &cached, nil
		}
	}

	p.logger.Info("[pipeline] Searching %s properties in %s up to %s Cr", req.PropertyType, req.City, req.MaxPrice)

	props, err := utils.Await(ctx, p.pool, func(ctx context.Context) ([]models.Property, error) {
		return p.scraper.FetchProperties(ctx, req), nil
	})
	if err != nil {
		return nil, fmt.Errorf("scrape: %w", err)
	}
	if props == nil {
		props = []models.Property{}
	}

	analysis, err := utils.Await(ctx, p.pool, func(ctx context.Context) (string, error) {
		return p.analyst.SummarizeMarket(ctx, props, req.MaxPrice), nil
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}

	history := &models.SearchHistory{
		City:         req.City,
		PropertyType: string(req.PropertyType),
		MaxPrice:     req.MaxPrice,
		ResultsCount: len(props),
	}
	if _, err := utils.Await(ctx, p.pool, func(ctx context.Context) (int, error) {
		return p.store.SaveSearch(ctx, props, history)
	}); err != nil {
		return nil, fmt.Errorf("record search: %w", err)
	}

	result := &models.SearchResult{Properties: props, Analysis: analysis}
	switch {
	case len(props) == 0:
		p.logger.Info("[pipeline] Not caching empty result for %s", key)
	case analysis == agents.AnalysisFailedMessage:
		p.logger.Info("[pipeline] Not caching fallback analysis for %s", key)
	default:
		p.cacheSet(ctx, key, result, p.ttl.Search)
	}

	p.logger.Info("[pipeline] Search complete: %d properties", len(props))
	return result, nil
}

// AnalyzeInvestment returns the investment analysis of a stored property.
// Within the analysis TTL the cached analysis is served unless refresh is
// set; otherwise the model is asked and the result is stored.
func (p *Pipeline) AnalyzeInvestment(ctx context.Context, propertyID uint, refresh bool) (*models.InvestmentAnalysis, error) {
	property, err := utils.Await(ctx, p.pool, func(ctx context.Context) (*models.Property, error) {
		return p.store.GetPropertyByID(ctx, propertyID)
	})
	if err != nil {
		return nil, err
	}

	key := AnalysisKey(propertyID)
	if !refresh {
		var cached models.InvestmentAnalysis
		if p.cacheGetJSON(ctx, key, &cached) {
			p.logger.Info("[pipeline] Cache hit for %s", key)
			return &cached, nil
		}
	}

	result, err := utils.Await(ctx, p.pool, func(ctx context.Context) (models.InvestmentResult, error) {
		return p.analyst.AnalyzeInvestment(ctx, *property), nil
	})
	if err != nil {
		return nil, fmt.Errorf("investment analysis: %w", err)
	}

	record := models.NewInvestmentAnalysis(propertyID, result)
	if _, err := utils.Await(ctx, p.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.store.CreateInvestmentAnalysis(ctx, record)
	}); err != nil {
		return nil, fmt.Errorf("record investment analysis: %w", err)
	}

	if result != agents.DefaultInvestment() {
		p.cacheSet(ctx, key, record, p.ttl.Analysis)
	}
	return record, nil
}

// MarketTrends returns the market outlook for a city. Trends are cached
// but never stored.
func (p *Pipeline) MarketTrends(ctx context.Context, req models.TrendRequest) (models.MarketTrendResult, error) {
	if req.City == "" {
		return models.MarketTrendResult{}, &models.ValidationError{Field: "city", Msg: "city must not be empty"}
	}

	key := TrendKey(req)
	var cached models.MarketTrendResult
	if p.cacheGetJSON(ctx, key, &cached) {
		p.logger.Info("[pipeline] Cache hit for %s", key)
		return cached, nil
	}

	result, err := utils.Await(ctx, p.pool, func(ctx context.Context) (models.MarketTrendResult, error) {
		return p.analyst.AnalyzeMarketTrend(ctx, req), nil
	})
	if err != nil {
		return models.MarketTrendResult{}, fmt.Errorf("market trends: %w", err)
	}

	if result.Insights != agents.TrendFallbackMessage {
		p.cacheSet(ctx, key, result, p.ttl.Trends)
	}
	return result, nil
}

// UpdateProperty edits a stored property and drops its cached analysis.
func (p *Pipeline) UpdateProperty(ctx context.Context, id uint, upd models.PropertyUpdate) (*models.Property, error) {
	updated, err := utils.Await(ctx, p.pool, func(ctx context.Context) (*models.Property, error) {
		return p.store.UpdateProperty(ctx, id, upd)
	})
	if err != nil {
		return nil, err
	}
	p.InvalidateProperty(ctx, id)
	return updated, nil
}

// DeleteProperty removes a stored property and drops its cached analysis.
func (p *Pipeline) DeleteProperty(ctx context.Context, id uint) error {
	if _, err := utils.Await(ctx, p.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.store.DeleteProperty(ctx, id)
	}); err != nil {
		return err
	}
	p.InvalidateProperty(ctx, id)
	return nil
}

// InvalidateProperty drops the cached analysis of a property.
func (p *Pipeline) InvalidateProperty(ctx context.Context, id uint) {
	key := AnalysisKey(id)
	_ = p.pool.Run(ctx, func(ctx context.Context) error {
		p.cache.Delete(ctx, key)
		return nil
	})
}

// Cache I/O is dispatched to the worker pool like every other outbound
// call. A pool error (cancellation) reads as a miss and skips a write.

func (p *Pipeline) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	type hit struct {
		raw []byte
		ok  bool
	}
	h, err := utils.Await(ctx, p.pool, func(ctx context.Context) (hit, error) {
		raw, ok := p.cache.Get(ctx, key)
		return hit{raw, ok}, nil
	})
	return h.raw, err == nil && h.ok
}

func (p *Pipeline) cacheGetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok := p.cacheGet(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		p.logger.Warn("[pipeline] Ignoring undecodable cache entry %s", key)
		return false
	}
	return true
}

func (p *Pipeline) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	_ = p.pool.Run(ctx, func(ctx context.Context) error {
		p.cache.Set(ctx, key, value, ttl)
		return nil
	})
}
