package cache

import (
	"context"
	"time"
)

// Store is a flat TTL key-value store for cached search responses. Values are
// JSON payloads; concurrent writes to one key are last-writer-wins, which is
// acceptable because cached values are derived data.
type Store interface {
	// Get returns the value for key and whether a live (unexpired) entry exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key for ttl, overwriting any previous entry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// ScanValues returns up to limit live values whose key starts with prefix.
	ScanValues(ctx context.Context, prefix string, limit int) ([]string, error)

	// DeleteExpired prunes entries past their TTL, returning the count removed.
	// Backends with native expiry may report 0.
	DeleteExpired(ctx context.Context) (int64, error)

	Close() error
}
