package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work across instances. The sync
// coordinator uses it to keep two API nodes from writing the same
// user's archive concurrently; the worker uses it around pruning.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if the lock was successfully acquired, false if
	// already held by another instance.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock. Best-effort; TTL-based
	// implementations auto-expire anyway. Safe to call when not held.
	Release(ctx context.Context, name string) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
