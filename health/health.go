// Package health reports database and cache connectivity.
package health

import (
	"context"
	"math"
	"time"
)

const Version = "1.0.0"

// Check statuses.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"
)

// Pinger is anything that can prove it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CheckResult struct {
	Status    string  `json:"status"`
	LatencyMs float64 `json:"latency_ms,omitempty"`
	Error     string  `json:"error,omitempty"`
}

type Report struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks"`
	Config    struct {
		CacheEnabled bool   `json:"cache_enabled"`
		LogLevel     string `json:"log_level"`
	} `json:"config"`
}

// Checker probes the database and, when caching is configured, the cache.
type Checker struct {
	db           Pinger
	cache        Pinger
	cacheEnabled bool
	logLevel     string
	timeout      time.Duration
}

func NewChecker(db, cache Pinger, cacheEnabled bool, logLevel string) *Checker {
	return &Checker{db: db, cache: cache, cacheEnabled: cacheEnabled, logLevel: logLevel, timeout: 2 * time.Second}
}

// Check runs every probe. The overall status is degraded when any probe
// is unhealthy; a disabled cache does not count against it.
func (c *Checker) Check(ctx context.Context) Report {
	var r Report
	r.Status = StatusHealthy
	r.Timestamp = time.Now().UTC()
	r.Version = Version
	r.Config.CacheEnabled = c.cacheEnabled
	r.Config.LogLevel = c.logLevel
	r.Checks = map[string]CheckResult{
		"database": c.probe(ctx, c.db),
	}
	if c.cacheEnabled {
		r.Checks["redis"] = c.probe(ctx, c.cache)
	} else {
		r.Checks["redis"] = CheckResult{Status: StatusDisabled}
	}

	for _, res := range r.Checks {
		if res.Status == StatusUnhealthy {
			r.Status = StatusDegraded
			break
		}
	}
	return r
}

func (c *Checker) probe(ctx context.Context, p Pinger) CheckResult {
	if p == nil {
		return CheckResult{Status: StatusUnhealthy, Error: "not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := p.Ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	latency := float64(time.Since(start).Microseconds()) / 1000
	return CheckResult{Status: StatusHealthy, LatencyMs: math.Round(latency*100) / 100}
}
