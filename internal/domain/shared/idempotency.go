package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so replays can be rejected
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl.
	// Returns true if the key was newly claimed, false if it was already taken.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key is currently claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release frees a claimed key, used when the guarded operation failed
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
