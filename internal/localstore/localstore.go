// Package localstore is the durable client-state layer: the server-side
// stand-in for the browser storage the web client used to own. It holds
// fallback profiles, the last-known session snapshot and the
// post-login redirect target, namespaced per principal.
package localstore

import (
	"context"
	"time"
)

// Store is a small key-value abstraction with TTL. Implementations:
// Redis for production, Memory for tests.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes a value. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes keys; missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Keys lists keys with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
