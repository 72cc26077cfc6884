// Package lock provides per-key mutual exclusion for settlement writes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	settlementapp "github.com/bizconsult/crm/internal/application/settlement"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var _ settlementapp.Locker = (*RedisLocker)(nil)

// RedisLocker obtains locks through redislock
type RedisLocker struct {
	client    *redislock.Client
	keyPrefix string
	retry     redislock.RetryStrategy
}

// NewRedisLocker creates a locker that retries retryCount times, retryDelay apart
func NewRedisLocker(client *redis.Client, retryCount int, retryDelay time.Duration) *RedisLocker {
	retry := redislock.NoRetry()
	if retryCount > 0 {
		if retryDelay <= 0 {
			retryDelay = 100 * time.Millisecond
		}
		retry = redislock.LimitRetry(redislock.LinearBackoff(retryDelay), retryCount)
	}
	return &RedisLocker{
		client:    redislock.New(client),
		keyPrefix: "crm:lock:",
		retry:     retry,
	}
}

// Obtain acquires key for ttl
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (settlementapp.Lock, error) {
	lock, err := l.client.Obtain(ctx, l.keyPrefix+key, ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s: %w", key, settlementapp.ErrLockNotObtained)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (r redisLock) Release(ctx context.Context) error {
	err := r.lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		// expired before release; the TTL already freed it
		return nil
	}
	return err
}
