// Package store provides the counter storage backends for throttling.
package store

import (
	"context"
	"time"
)

// Store is a keyed counter store with expiry.
type Store interface {
	// Get retrieves the counter value for key.
	Get(ctx context.Context, key string) (int64, error)

	// Set stores a counter value with an expiration.
	Set(ctx context.Context, key string, value int64, expiration time.Duration) error

	// IncrementWithExpiry atomically increments the counter, setting
	// the expiration when the key is created.
	IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error)

	// Delete removes the key.
	Delete(ctx context.Context, key string) error

	// Close releases the store's resources.
	Close() error
}

// ErrKeyNotFound is returned for absent keys.
type ErrKeyNotFound struct {
	Key string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Key
}

// IsKeyNotFound reports whether err is an absent-key error.
func IsKeyNotFound(err error) bool {
	_, ok := err.(*ErrKeyNotFound)
	return ok
}
