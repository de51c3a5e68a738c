// Package cache provides a redis-backed display cache for account balances.
// It is a read-path optimization only: ledger mutations invalidate entries
// and every correctness decision reads the store directly.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// balanceTTL bounds staleness if an invalidation is lost.
const balanceTTL = 5 * time.Minute

// RedisBalanceCache caches display balances in redis.
type RedisBalanceCache struct {
	client *redis.Client
}

// NewRedisBalanceCache constructs a cache over an existing redis client.
func NewRedisBalanceCache(client *redis.Client) *RedisBalanceCache {
	return &RedisBalanceCache{client: client}
}

func balanceKey(userID uint64) string {
	return fmt.Sprintf("credits:balance:%d", userID)
}

// GetBalance returns a cached balance, if present.
func (c *RedisBalanceCache) GetBalance(ctx context.Context, userID uint64) (int64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	raw, errGet := c.client.Get(ctx, balanceKey(userID)).Result()
	if errGet != nil {
		return 0, false
	}
	balance, errParse := strconv.ParseInt(raw, 10, 64)
	if errParse != nil {
		return 0, false
	}
	return balance, true
}

// SetBalance stores a balance with a bounded TTL.
func (c *RedisBalanceCache) SetBalance(ctx context.Context, userID uint64, balance int64) {
	if c == nil || c.client == nil {
		return
	}
	if errSet := c.client.Set(ctx, balanceKey(userID), strconv.FormatInt(balance, 10), balanceTTL).Err(); errSet != nil {
		log.WithError(errSet).Debug("balance cache: set failed")
	}
}

// Invalidate drops a cached balance after a ledger mutation.
func (c *RedisBalanceCache) Invalidate(ctx context.Context, userID uint64) {
	if c == nil || c.client == nil {
		return
	}
	if errDel := c.client.Del(ctx, balanceKey(userID)).Err(); errDel != nil {
		log.WithError(errDel).Debug("balance cache: invalidate failed")
	}
}
