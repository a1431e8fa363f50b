// Package lock serializes work on a single record across goroutines or
// processes. The engine takes one lock per subscription or wallet around
// every read-modify-write.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the context ends before the lock is free.
var ErrNotAcquired = errors.New("lock: not acquired")

// Release frees a held lock. Calling it more than once is a no-op.
type Release func(ctx context.Context) error

// Locker hands out exclusive, expiring locks by key.
type Locker interface {
	// Acquire blocks until key is free or ctx is done. ttl bounds how long a
	// crashed holder can keep the lock; implementations that cannot crash
	// independently of the caller may ignore it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (Release, error)
}

// Key builds a namespaced lock key, e.g. Key("subscription", id).
func Key(kind, id string) string {
	return "drops:lock:" + kind + ":" + id
}
