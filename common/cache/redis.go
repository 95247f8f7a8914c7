package cache

import (
	"context"
	"time"

	"github.com/specworks/reqregistry/common/logger"
)

// redisStore is the slice of the redis client the cache uses.
type redisStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, expiry time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RedisCache is a redis-backed cache implementation. It shares view
// documents across instances; the memory cache only serves one process.
type RedisCache struct {
	store redisStore
	log   *logger.Logger
}

// NewRedisCache creates a cache over an existing redis client
func NewRedisCache(store redisStore, log *logger.Logger) *RedisCache {
	return &RedisCache{store: store, log: log}
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, found, err := c.store.Get(ctx, key)
	if err != nil || !found {
		return nil, false, err
	}
	return []byte(val), true, nil
}

// Set stores a value in cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.store.Set(ctx, key, string(value), ttl)
}

// Delete removes a value from cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Close closes the cache. The underlying redis client is owned by the
// caller, so there is nothing to release here.
func (c *RedisCache) Close() error {
	c.log.Info("redis cache closed")
	return nil
}
