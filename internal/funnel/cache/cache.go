// Package cache stores computed funnel buckets in redis, keyed by a
// canonical hash of the query. Invalidation works per scope prefix so a
// unit's activity only busts that unit's cached reports.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"funil_backend/platform/config"
	"funil_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "funnel:"

// ScopeAll invalidates every cached funnel report.
const ScopeAll = "all"

type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New connects to redis using the configured URL. The TTL keeps entries
// short-lived; the debounced invalidator is the primary freshness
// mechanism, the TTL is the backstop.
func New(cfg config.CacheConfig, log *logger.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	return NewWithClient(redis.NewClient(opt), cfg.GetFunnelCacheTTL(), log), nil
}

// NewWithClient wraps an existing redis client; used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, log: log}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// Key builds the cache key for a scope and a canonical query string.
func Key(scope, canonicalQuery string) string {
	sum := sha256.Sum256([]byte(canonicalQuery))
	return keyPrefix + scope + ":" + hex.EncodeToString(sum[:])
}

// Get unmarshals a cached result into dest. The second return reports a
// hit. A broken or missing entry is a miss, never an error for callers.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("dropping undecodable funnel cache entry", "key", key, "error", err)
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

// Set stores a result under the key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Invalidate deletes every entry under the scope prefix.
func (c *Cache) Invalidate(ctx context.Context, scope string) error {
	pattern := keyPrefix + scope + ":*"
	if scope == ScopeAll {
		pattern = keyPrefix + "*"
	}

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return err
	}

	c.log.Debug("funnel cache invalidated", "scope", scope, "keys", deleted)
	return nil
}
