// Package cache holds short-lived lookups that are expensive to repeat,
// such as music search results.
package cache

import (
	"context"
	"time"
)

// Cache stores string values under string keys. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns ErrMiss when key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value for ttl. A ttl <= 0 never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }
