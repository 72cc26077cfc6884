package notification

import (
	"context"
	"time"
)

// SMSSender delivers a text message through the SMS provider
type SMSSender interface {
	// Send returns the provider's message ID
	Send(ctx context.Context, to, text string) (string, error)
}

// DedupeStore suppresses repeated sends within a window.
// It is implemented by the cache layer (Redis or in-memory).
type DedupeStore interface {
	// Reserve records key for ttl. It returns false when key is already reserved.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a reservation so a failed send can be retried
	Release(ctx context.Context, key string) error
}
