package cache

import (
	"context"
	"time"
)

// Store is the minimal contract the coordination protocol needs from the
// shared key-value cache: per-key JSON read/write with TTL, and an atomic
// create-if-absent used as the lock primitive. No compare-and-swap or
// multi-key transactions are assumed.
type Store interface {
	// GetJSON unmarshals the value at key into dest. The bool reports
	// whether the key existed.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	// SetJSON marshals val and writes it at key. ttl <= 0 means no expiry.
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	// SetNX writes val at key only if the key is absent. Returns true when
	// this call created the key.
	SetNX(ctx context.Context, key string, val any, ttl time.Duration) (bool, error)
	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error
}
