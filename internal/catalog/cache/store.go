package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheUnavailable marks a store connection or operation failure.
	// The accessor recovers from it by going to the repository.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// ErrSerialization marks a cached payload that cannot be decoded.
	ErrSerialization = errors.New("cache payload corrupt")
)

// Store is the key-value store cache entries live in.
//
// Get returns (nil, false, nil) on a miss or an expired entry. Delete of an
// absent key is a no-op. Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Invalidate(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}
