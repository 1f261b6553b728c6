package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/storage/redis"
	goredis "github.com/redis/go-redis/v9"

	"github.com/swiden/trackstore/internal/pkg/config"
)

// limiterDB keeps rate limiter counters away from the webhook ledger keys.
const limiterDB = 1

// NewClient connects to the configured redis/dragonfly server. The ping is
// bounded by ctx; a failed ping is returned so callers can fall back.
func NewClient(ctx context.Context, cfg config.Cache) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to cache %s: %w", client.Options().Addr, err)
	}
	log.Infof("[Cache] Connected to %s: %s", client.Options().Addr, pong)
	return client, nil
}

// NewLimiterStorage returns fiber storage for the rate limiter on a separate
// database of the same server.
func NewLimiterStorage(cfg config.Cache) *redis.Storage {
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		Database: limiterDB,
		Reset:    false,
	})
}
