package ports

import (
	"context"
	"time"
)

// EphemeralStore is the shared short-lived keyed store used for OAuth state,
// deduplication claims, rate-limit counters and the token cache.
// Implementations must be safe for concurrent callers racing on the same key.
type EphemeralStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns found=false without error when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Delete(ctx context.Context, keys ...string) error
	// SetIfAbsent atomically claims key. Exactly one concurrent caller observes true.
	SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// IncrementWindow atomically increments key, setting ttl only when the key is created.
	IncrementWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
	ScanPrefix(ctx context.Context, prefix string) ([]string, error)
}
