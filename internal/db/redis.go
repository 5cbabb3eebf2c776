// internal/db/redis.go
package db

import (
	"context"
	"fmt"
	"time"

	"gym-admin-service/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to a single Redis node. It returns nil without an
// error when no address is configured, which disables rate limiting.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
