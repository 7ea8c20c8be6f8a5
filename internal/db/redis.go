// internal/db/redis.go
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addresses []string
	Password  string
	DB        int
	PoolSize  int
}

// NewRedisClient connects to a single node, or to a cluster when more than
// one address is configured.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("no Redis address provided")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Addresses,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}
