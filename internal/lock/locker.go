// Package lock provides the per-user sync lock that guarantees at most one
// collection sync in flight per user.
package lock

import "context"

// Locker is the single-flight guard. Acquire must be atomic with respect
// to concurrent acquisitions for the same user: exactly one caller wins.
//
// Locks carry a TTL so an abandoned lock (crashed process, leaked
// goroutine) cannot block a user forever; the normal path is an explicit
// Release when the sync finishes.
type Locker interface {
	// Acquire attempts to take the lock for userID. Returns false if a
	// sync is already in flight for that user.
	Acquire(ctx context.Context, userID int64) (bool, error)

	// Release frees the lock for userID. Releasing a lock that is not
	// held is a no-op.
	Release(ctx context.Context, userID int64) error
}
