package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker is an in-process Locker for single-instance deployments
// and tests. Acquisition is a compare-and-set under one mutex.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[int64]time.Time
	ttl  time.Duration
}

// NewMemoryLocker creates an in-memory locker. Locks older than ttl are
// treated as abandoned and can be re-acquired.
func NewMemoryLocker(ttl time.Duration) *MemoryLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryLocker{
		held: make(map[int64]time.Time),
		ttl:  ttl,
	}
}

// Acquire takes the lock for userID if it is free or expired.
func (l *MemoryLocker) Acquire(ctx context.Context, userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if startedAt, ok := l.held[userID]; ok && time.Since(startedAt) < l.ttl {
		return false, nil
	}
	l.held[userID] = time.Now()
	return true, nil
}

// Release frees the lock for userID.
func (l *MemoryLocker) Release(ctx context.Context, userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, userID)
	return nil
}

// Ensure MemoryLocker implements Locker
var _ Locker = (*MemoryLocker)(nil)
