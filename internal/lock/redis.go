package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"meeplehub-api/pkg/uid"
)

// releaseIfOwnerScript deletes the lock key only if it still holds our
// ownership token, so an expired lock re-acquired by a later sync is never
// released by the earlier one.
var releaseIfOwnerScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker is a Redis-backed Locker for multi-instance deployments.
// Acquisition is SET NX with a TTL; release is guarded by an ownership
// token minted per acquisition.
type RedisLocker struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string

	mu     sync.Mutex
	tokens map[int64]string
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{
		client:    client,
		ttl:       ttl,
		keyPrefix: "meeplehub:synclock:",
		tokens:    make(map[int64]string),
	}
}

func (l *RedisLocker) key(userID int64) string {
	return fmt.Sprintf("%s%d", l.keyPrefix, userID)
}

// Acquire takes the lock for userID via SET NX.
func (l *RedisLocker) Acquire(ctx context.Context, userID int64) (bool, error) {
	token := uid.New()

	ok, err := l.client.SetNX(ctx, l.key(userID), token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[userID] = token
	l.mu.Unlock()
	return true, nil
}

// Release frees the lock for userID if this instance still owns it.
func (l *RedisLocker) Release(ctx context.Context, userID int64) error {
	l.mu.Lock()
	token, ok := l.tokens[userID]
	delete(l.tokens, userID)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	if err := releaseIfOwnerScript.Run(ctx, l.client, []string{l.key(userID)}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release sync lock: %w", err)
	}
	return nil
}

// Ensure RedisLocker implements Locker
var _ Locker = (*RedisLocker)(nil)
