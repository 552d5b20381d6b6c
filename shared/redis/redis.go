package redis

import (
	"context"
	"time"

	"ai-companion-chat/backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

// NewClient builds a go-redis client from the process config, or nil when
// no REDIS_URL is set. A nil client disables the settings cache in the
// storage layer.
func NewClient() *redis.Client {
	cfg := config.Get()
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
}

// Ping verifies the connection with a short deadline.
func Ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}
