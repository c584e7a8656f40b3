package repository

import (
	"context"
	"time"
)

// StateStore holds short-lived shared state, such as the dedup markers for
// views and reminders.
// Implementations: Redis (several instances) or in-memory (single instance, tests).
type StateStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil, nil for a missing or expired key.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetNX stores the key only if it is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}
