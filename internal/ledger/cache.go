package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// BalanceCache is a read-through projection of current balances. It is
// never authoritative: the calculator populates it from the store and the
// mutation guard invalidates it on every successful write. Cache failures
// degrade to store reads, they never fail a request.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewBalanceCache creates a cache around an existing Redis client.
func NewBalanceCache(logger *slog.Logger, client *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func balanceKey(ownerID uuid.UUID) string {
	return "ledger:balance:" + ownerID.String()
}

// Get returns the cached balance and whether it was present.
func (c *BalanceCache) Get(ctx context.Context, ownerID uuid.UUID) (int64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}

	val, err := c.client.Get(ctx, balanceKey(ownerID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Balance cache read failed", "owner_id", ownerID.String(), "error", err)
		}
		return 0, false
	}

	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		c.logger.Warn("Balance cache holds unparsable value, dropping it", "owner_id", ownerID.String(), "value", val)
		c.Invalidate(ctx, ownerID)
		return 0, false
	}

	return balance, true
}

// Set stores the computed balance with the configured TTL.
func (c *BalanceCache) Set(ctx context.Context, ownerID uuid.UUID, balance int64) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Set(ctx, balanceKey(ownerID), strconv.FormatInt(balance, 10), c.ttl).Err(); err != nil {
		c.logger.Warn("Balance cache write failed", "owner_id", ownerID.String(), "error", err)
	}
}

// Invalidate drops the owner's cached balance. Called by the mutation guard
// after every successful create, update, or delete.
func (c *BalanceCache) Invalidate(ctx context.Context, ownerID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Del(ctx, balanceKey(ownerID)).Err(); err != nil {
		c.logger.Warn("Balance cache invalidation failed", "owner_id", ownerID.String(), "error", err)
	}
}
