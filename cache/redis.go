// Package cache is the TTL key-value gateway in front of Redis. Every
// operation degrades to a logged no-op when Redis is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"realestate-agent/utils"
)

const scanBatch = 100

// Redis is the cache gateway.
type Redis struct {
	rdb     *redis.Client
	enabled bool
	logger  *utils.Logger
}

// New connects to redisURL, bounding the connection attempt by
// connectTimeout. If caching is turned off or Redis cannot be reached the
// returned gateway is disabled; New never fails.
func New(ctx context.Context, redisURL string, enabled bool, connectTimeout time.Duration, logger *utils.Logger) *Redis {
	c := &Redis{logger: logger}
	if !enabled {
		logger.Info("[cache] Caching is disabled")
		return c
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("[cache] Invalid REDIS_URL %q: %v; caching disabled", redisURL, err)
		return c
	}
	opts.DialTimeout = connectTimeout

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("[cache] Redis connection failed: %v; caching disabled", err)
		_ = rdb.Close()
		return c
	}

	logger.Info("[cache] Connected to Redis at %s", opts.Addr)
	c.rdb = rdb
	c.enabled = true
	return c
}

// NewFromClient wraps an existing client without probing it.
func NewFromClient(rdb *redis.Client, logger *utils.Logger) *Redis {
	return &Redis{rdb: rdb, enabled: rdb != nil, logger: logger}
}

// Enabled reports whether the gateway talks to Redis at all.
func (c *Redis) Enabled() bool {
	return c.enabled && c.rdb != nil
}

// Get returns the raw JSON stored under key.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}

	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("[cache] MISS %s", key)
		return nil, false
	}
	if err != nil {
		c.logger.Error("[cache] Get %s failed: %v", key, err)
		return nil, false
	}
	c.logger.Debug("[cache] HIT %s", key)
	return val, true
}

// GetJSON decodes the value under key into dest. An undecodable entry is
// treated as a miss.
func (c *Redis) GetJSON(ctx context.Context, key string, dest any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Error("[cache] Corrupt entry %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value as JSON under key for ttl. A non-positive ttl is refused
// so nothing is cached indefinitely.
func (c *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if ttl <= 0 {
		c.logger.Warn("[cache] Refusing to cache %s without a TTL", key)
		return
	}

	var payload []byte
	switch v := value.(type) {
	case []byte:
		payload = v
	case json.RawMessage:
		payload = v
	default:
		b, err := json.Marshal(value)
		if err != nil {
			c.logger.Error("[cache] Marshal %s failed: %v", key, err)
			return
		}
		payload = b
	}

	if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Error("[cache] Set %s failed: %v", key, err)
		return
	}
	c.logger.Debug("[cache] SET %s (TTL: %v)", key, ttl)
}

// Delete removes key.
func (c *Redis) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Error("[cache] Delete %s failed: %v", key, err)
		return
	}
	c.logger.Debug("[cache] DELETE %s", key)
}

// InvalidatePattern deletes every key matching a glob pattern such as
// "search:*" and returns how many were removed.
func (c *Redis) InvalidatePattern(ctx context.Context, pattern string) int {
	if !c.Enabled() {
		return 0
	}

	removed := 0
	iter := c.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)
	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		n, err := c.rdb.Del(ctx, batch...).Result()
		if err != nil {
			c.logger.Error("[cache] Invalidate %q failed: %v", pattern, err)
			return false
		}
		removed += int(n)
		batch = batch[:0]
		return true
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch && !flush() {
			return removed
		}
	}
	if err := iter.Err(); err != nil {
		c.logger.Error("[cache] Scan %q failed: %v", pattern, err)
		return removed
	}
	if !flush() {
		return removed
	}

	if removed > 0 {
		c.logger.Info("[cache] INVALIDATE %d keys matching '%s'", removed, pattern)
	}
	return removed
}

// Clear drops every entry in the selected Redis database.
func (c *Redis) Clear(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.FlushDB(ctx).Err(); err != nil {
		c.logger.Error("[cache] Clear failed: %v", err)
		return
	}
	c.logger.Warn("[cache] CLEARED: all entries deleted")
}

// Ping checks connectivity for health reporting.
func (c *Redis) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Redis) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// ErrDisabled is returned by Ping when caching is off.
var ErrDisabled = errors.New("cache disabled")
