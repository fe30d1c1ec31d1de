package memory

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "alpha:memory:conversations:c1", cacheKey("conversations", "c1"))
}

func TestRedisCacheReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	cache := NewRedisCache(client, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var dst map[string]interface{}
	found, err := cache.Get(ctx, "users", "u1", &dst)
	require.Error(t, err)
	assert.False(t, found)
	assert.Contains(t, err.Error(), "redis get alpha:memory:users:u1")

	err = cache.Set(ctx, "users", "u1", map[string]interface{}{"a": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set alpha:memory:users:u1")
}
