package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type cacheEntry struct {
	Value    json.RawMessage `json:"value"`
	CachedAt time.Time       `json:"cached_at"`
}

// RedisCache stores last-known-good values as JSON under
// "<namespace>:<key>". A zero TTL keeps entries until evicted by the
// server, which is the default: staleness is reported, not enforced.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func cacheKey(namespace, key string) string {
	return namespace + ":" + key
}

func (c *RedisCache) Get(ctx context.Context, namespace, key string, out interface{}) (time.Time, bool, error) {
	val, err := c.client.Get(ctx, cacheKey(namespace, key)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt cache entry for %s: %w", cacheKey(namespace, key), err)
	}

	if err := json.Unmarshal(entry.Value, out); err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt cache value for %s: %w", cacheKey(namespace, key), err)
	}

	return entry.CachedAt, true, nil
}

func (c *RedisCache) Put(ctx context.Context, namespace, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	entry, err := json.Marshal(cacheEntry{
		Value:    raw,
		CachedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(namespace, key), entry, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
