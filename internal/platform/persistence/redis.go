package persistence

import (
	"context"
	"log/slog"

	"github.com/castilhosApc/financeiro-ledger/internal/config"
	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to Redis for the balance cache. Redis is optional:
// an empty Addr, or a failed ping, returns a nil client and the service runs
// without caching.
func NewRedisClient(ctx context.Context, logger *slog.Logger, cfg *config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		logger.Info("Redis address not configured, balance cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis connection failed, continuing without balance cache", "error", err)
		_ = client.Close()
		return nil
	}

	logger.Info("Connected to Redis")
	return client
}
