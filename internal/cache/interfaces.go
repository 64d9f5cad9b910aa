package cache

import (
	"context"
	"time"
)

// Cache is the interface for ephemeral keyed storage. Withdrawal sessions and
// short-lived lookups go through this abstraction so the memory implementation
// (single instance) and Redis (production) are interchangeable.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases resources held by the cache.
	Close() error
}

// CacheError is a string-typed cache error.
type CacheError string

func (e CacheError) Error() string { return string(e) }

// ErrCacheMiss indicates the key was not found in cache.
const ErrCacheMiss CacheError = "cache miss"
