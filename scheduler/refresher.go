// Package scheduler keeps the search cache warm by periodically re-running
// the most recent distinct searches.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"realestate-agent/models"
	"realestate-agent/pipeline"
	"realestate-agent/utils"
)

// History lists recent searches, newest first.
type History interface {
	RecentSearchHistory(ctx context.Context, limit int) ([]models.SearchHistory, error)
}

// Searcher re-runs a search past the cache. Only a good result replaces
// the cached entry.
type Searcher interface {
	Refresh(ctx context.Context, req models.SearchRequest) (*models.SearchResult, error)
}

// historyScanFactor widens the history window so that repeated searches
// still leave enough distinct ones to refresh.
const historyScanFactor = 5

// Refresher wraps robfig/cron and manages the refresh loop.
type Refresher struct {
	cron     *cron.Cron
	history  History
	searcher Searcher
	spec     string // cron spec, e.g. "@every 6h"
	searches int
	logger   *utils.Logger
}

// New creates a Refresher that re-runs up to searches distinct searches on
// every tick of spec.
func New(history History, searcher Searcher, spec string, searches int, logger *utils.Logger) *Refresher {
	return &Refresher{
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		history:  history,
		searcher: searcher,
		spec:     spec,
		searches: searches,
		logger:   logger,
	}
}

// Start registers the refresh job and starts the scheduler.
func (r *Refresher) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.spec, func() {
		if _, err := r.RunOnce(ctx); err != nil {
			r.logger.Error("[scheduler] Refresh cycle failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	r.cron.Start()
	r.logger.Info("[scheduler] Cron started, spec: %s", r.spec)
	return nil
}

// Stop shuts down the scheduler and waits for a running cycle to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("[scheduler] Cron stopped")
}

// RunOnce refreshes the most recent distinct searches and returns how many
// were re-run.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	r.logger.Info("[scheduler] Refresh cycle started")

	rows, err := r.history.RecentSearchHistory(ctx, r.searches*historyScanFactor)
	if err != nil {
		return 0, fmt.Errorf("load search history: %w", err)
	}

	requests := distinctRequests(rows, r.searches)
	if len(requests) == 0 {
		r.logger.Info("[scheduler] No recent searches, nothing to refresh")
		return 0, nil
	}

	refreshed := 0
	for _, req := range requests {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		result, err := r.searcher.Refresh(ctx, req)
		if err != nil {
			r.logger.Error("[scheduler] Refresh of %s failed: %v", pipeline.SearchKey(req), err)
			continue
		}
		refreshed++
		r.logger.Info("[scheduler] Refreshed %s: %d properties", pipeline.SearchKey(req), len(result.Properties))
	}

	r.logger.Info("[scheduler] Refresh cycle complete: %d/%d searches", refreshed, len(requests))
	return refreshed, nil
}

// distinctRequests turns history rows into at most limit valid requests,
// keeping the first (newest) occurrence of each cache key.
func distinctRequests(rows []models.SearchHistory, limit int) []models.SearchRequest {
	seen := make(map[string]struct{})
	out := make([]models.SearchRequest, 0, limit)
	for _, row := range rows {
		if len(out) >= limit {
			break
		}
		pt, err := models.ParsePropertyType(row.PropertyType)
		if err != nil {
			continue
		}
		req := models.SearchRequest{City: row.City, MaxPrice: row.MaxPrice, PropertyType: pt}
		if req.Validate() != nil {
			continue
		}
		key := pipeline.SearchKey(req)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, req)
	}
	return out
}
