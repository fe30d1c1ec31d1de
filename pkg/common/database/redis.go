package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thealphakenya/Alphaai/pkg/common/config"
	"github.com/thealphakenya/Alphaai/pkg/common/logger"
)

// redisOptions maps the memory cache settings onto a client. Timeouts are
// kept short because a slow cache must never hold up a request that can be
// answered from disk.
func redisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	}
}

// OpenRedis connects the memory cache client and verifies it with a ping.
// On error the client is closed and nil is returned.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts := redisOptions(cfg)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"addr": opts.Addr,
		"db":   opts.DB,
	}).Info("Connected to Redis")
	return client, nil
}
