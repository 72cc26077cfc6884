package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	settlementapp "github.com/bizconsult/crm/internal/application/settlement"
)

var _ settlementapp.Locker = (*LocalLocker)(nil)

// LocalLocker is the single-instance fallback used when Redis is disabled.
// Locks expire after their TTL like the Redis implementation.
type LocalLocker struct {
	mu         sync.Mutex
	held       map[string]localEntry
	retryCount int
	retryDelay time.Duration
	now        func() time.Time
	seq        uint64
}

type localEntry struct {
	token     uint64
	expiresAt time.Time
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker(retryCount int, retryDelay time.Duration) *LocalLocker {
	if retryDelay <= 0 {
		retryDelay = 100 * time.Millisecond
	}
	return &LocalLocker{
		held:       make(map[string]localEntry),
		retryCount: retryCount,
		retryDelay: retryDelay,
		now:        time.Now,
	}
}

// Obtain acquires key for ttl, retrying up to retryCount times
func (l *LocalLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (settlementapp.Lock, error) {
	for attempt := 0; ; attempt++ {
		if token, ok := l.tryObtain(key, ttl); ok {
			return &localLock{owner: l, key: key, token: token}, nil
		}
		if attempt >= l.retryCount {
			return nil, fmt.Errorf("%s: %w", key, settlementapp.ErrLockNotObtained)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *LocalLocker) tryObtain(key string, ttl time.Duration) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[key]; ok && now.Before(e.expiresAt) {
		return 0, false
	}
	l.seq++
	l.held[key] = localEntry{token: l.seq, expiresAt: now.Add(ttl)}
	return l.seq, true
}

func (l *LocalLocker) release(key string, token uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// only the current holder may release
	if e, ok := l.held[key]; ok && e.token == token {
		delete(l.held, key)
	}
}

type localLock struct {
	owner *LocalLocker
	key   string
	token uint64
}

func (l *localLock) Release(_ context.Context) error {
	l.owner.release(l.key, l.token)
	return nil
}
