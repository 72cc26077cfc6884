package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	settlementapp "github.com/bizconsult/crm/internal/application/settlement"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_Obtain(t *testing.T) {
	ctx := context.Background()

	t.Run("second obtain fails while held", func(t *testing.T) {
		l := NewLocalLocker(0, time.Millisecond)

		lock, err := l.Obtain(ctx, "settlement:c1", time.Minute)
		require.NoError(t, err)

		_, err = l.Obtain(ctx, "settlement:c1", time.Minute)
		assert.True(t, errors.Is(err, settlementapp.ErrLockNotObtained))

		_, err = l.Obtain(ctx, "settlement:c2", time.Minute)
		assert.NoError(t, err, "other keys are independent")

		require.NoError(t, lock.Release(ctx))
		_, err = l.Obtain(ctx, "settlement:c1", time.Minute)
		assert.NoError(t, err)
	})

	t.Run("expired lock can be taken over", func(t *testing.T) {
		l := NewLocalLocker(0, time.Millisecond)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return now }

		stale, err := l.Obtain(ctx, "k", time.Second)
		require.NoError(t, err)

		now = now.Add(2 * time.Second)
		fresh, err := l.Obtain(ctx, "k", time.Second)
		require.NoError(t, err)

		// the stale holder must not release the new holder's lock
		require.NoError(t, stale.Release(ctx))
		_, err = l.Obtain(ctx, "k", time.Second)
		assert.True(t, errors.Is(err, settlementapp.ErrLockNotObtained))

		require.NoError(t, fresh.Release(ctx))
	})

	t.Run("retries until released", func(t *testing.T) {
		l := NewLocalLocker(50, 2*time.Millisecond)
		lock, err := l.Obtain(ctx, "k", time.Minute)
		require.NoError(t, err)

		go func() {
			time.Sleep(10 * time.Millisecond)
			_ = lock.Release(ctx)
		}()

		_, err = l.Obtain(ctx, "k", time.Minute)
		assert.NoError(t, err)
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		l := NewLocalLocker(100, 50*time.Millisecond)
		_, err := l.Obtain(ctx, "k", time.Minute)
		require.NoError(t, err)

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err = l.Obtain(cctx, "k", time.Minute)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestLocalLocker_MutualExclusion(t *testing.T) {
	l := NewLocalLocker(1000, time.Millisecond)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := l.Obtain(ctx, "shared", time.Minute)
			if err != nil {
				return
			}
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			_ = lock.Release(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	l := NewRedisLocker(client, 0, 0)
	_, err := l.Obtain(context.Background(), "k", time.Second)
	require.Error(t, err)
	assert.False(t, errors.Is(err, settlementapp.ErrLockNotObtained))
}
