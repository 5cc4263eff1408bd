package matcher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "veritrail:match:"

// RedisCache is a Cache backed by Redis, for deployments where several
// scoring workers share one cache. Values are JSON-encoded match lists; a
// SET replaces the whole list atomically. Redis failures degrade to cache
// misses so matching never fails because caching did.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// RedisCacheOption configures the RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRedisTTL overrides the default entry TTL.
func WithRedisTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) { c.ttl = ttl }
}

// WithRedisLogger sets a logger for degraded-mode reporting.
func WithRedisLogger(logger *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) { c.logger = logger }
}

// NewRedisCache creates a Redis-backed match cache with a 1h default TTL.
func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client, ttl: time.Hour}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]StandardMatch, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.WarnContext(ctx, "match cache read failed", "error", err)
		}
		return nil, false
	}

	var matches []StandardMatch
	if err := json.Unmarshal(raw, &matches); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "match cache entry corrupt, ignoring", "error", err)
		}
		return nil, false
	}
	return matches, true
}

func (c *RedisCache) Set(ctx context.Context, key string, matches []StandardMatch) {
	raw, err := json.Marshal(matches)
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "match cache encode failed", "error", err)
		}
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "match cache write failed", "error", err)
		}
	}
}
