// Package provider defines the byte store the variation cache runs on.
//
// Implementations MUST be byte-for-byte transparent: Get returns exactly the
// bytes passed to Set for a key. The cache keeps its own framing (magic,
// version, kind) inside the value and treats anything else as corruption.
//
// The keyspace "var:<namespace>:" is owned by the variation cache. Foreign
// writes under that prefix fail frame validation and are deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry.
	// Redirects are always written with ttl 0. May ignore cost if unsupported.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
