package gateway

import (
	"context"
	"time"
)

// FallbackCache is the last-known-good store. Entries are written through
// on every successful primary fetch and read only on the fallback path.
// Expiry, if any, is the cache implementation's concern.
type FallbackCache interface {
	// Get unmarshals the cached value for namespace/key into out and
	// returns the time the entry was written. ok is false on a miss.
	Get(ctx context.Context, namespace, key string, out interface{}) (cachedAt time.Time, ok bool, err error)
	Put(ctx context.Context, namespace, key string, value interface{}) error
}

// FallbackStrategy terminates resolution for one dependency when the
// primary path is rejected or exhausted. cause is the underlying failure.
type FallbackStrategy[T any] interface {
	Resolve(ctx context.Context, key string, cause error) (T, error)
}

// RetryObserver is notified of each scheduled re-attempt. Fire-and-forget;
// it must not affect the call outcome.
type RetryObserver func(ctx context.Context, dependency, key string, attempt int, nextDelay time.Duration, cause error)
