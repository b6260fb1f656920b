package shared

import (
	"context"
	"time"
)

// Unlock releases a lock obtained from Locker.Acquire. It is safe to call
// more than once.
type Unlock func()

// Locker provides mutual exclusion keyed by an arbitrary string, typically
// an aggregate ID.
type Locker interface {
	// Acquire waits at most wait for the lock on key. When the wait runs out
	// it returns an error matching ErrContention; callers may retry.
	Acquire(ctx context.Context, key string, wait time.Duration) (Unlock, error)
}
