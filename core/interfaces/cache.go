// Package interfaces defines the core interfaces used throughout the application.
// These interfaces allow for dependency injection and make the code testable.
package interfaces

import (
	"context"
	"time"
)

// Cache defines the interface for a single cache tier.
// Implementations can be Redis, in-memory, or a tiered combination.
//
// A miss is reported as an error; callers treat any Get error from an
// optional tier as a miss rather than a failure.
type Cache interface {
	// Get retrieves a value from the cache by key.
	// Returns the cached data as []byte or an error if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the given key and TTL.
	// If ttl is 0, the value should be stored indefinitely.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache by key.
	// Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error
}

// TTLCache is a Cache that can report how long a key has left to live.
// Tiers that promote entries from another tier use it to bound the
// promoted copy's lifetime.
type TTLCache interface {
	Cache

	// GetWithTTL retrieves a value along with its remaining TTL.
	// A zero TTL means the entry has no expiry.
	GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, error)
}

// CacheStats is a snapshot of cumulative cache counters since the last reset.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Size    int     `json:"size"`
	HitRate float64 `json:"hitRate"`
}

// StatCache is a Cache that also reports hit/miss statistics.
type StatCache interface {
	Cache

	// Stats returns cumulative hit/miss counters and the current entry count.
	Stats() CacheStats
}
