package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds decoded documents in front of the file store. Values are
// stored as JSON so callers never share mutable state with the cache.
type Cache interface {
	Get(ctx context.Context, kind, id string, dst interface{}) (bool, error)
	Set(ctx context.Context, kind, id string, value interface{}) error
}

// LocalCache is an in-process Cache.
type LocalCache struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewLocalCache() *LocalCache {
	return &LocalCache{items: make(map[string][]byte)}
}

func (c *LocalCache) Get(ctx context.Context, kind, id string, dst interface{}) (bool, error) {
	c.mu.RLock()
	raw, ok := c.items[cacheKey(kind, id)]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *LocalCache) Set(ctx context.Context, kind, id string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[cacheKey(kind, id)] = raw
	c.mu.Unlock()
	return nil
}

// RedisCache shares cached documents between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, kind, id string, dst interface{}) (bool, error) {
	key := cacheKey(kind, id)
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, kind, id string, value interface{}) error {
	key := cacheKey(kind, id)
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func cacheKey(kind, id string) string {
	return fmt.Sprintf("alpha:memory:%s:%s", kind, id)
}
