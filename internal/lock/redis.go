package lock

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bloxstake-trading-api/pkg/uid"
)

const (
	lockKeyPrefix = "bloxstake:lock:"
	lockTTL       = 30 * time.Second
	retryInterval = 100 * time.Millisecond
	maxRetries    = 50
)

// releaseIfOwnedScript deletes the lock only when the stored owner matches,
// so a lock that expired and was re-acquired by someone else is never
// released by the original holder. The check and delete must be atomic.
var releaseIfOwnedScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker implements Locker with Redis SETNX locks, for deployments where
// multiple instances share the binding store. Locks expire after 30s so a
// crashed holder cannot deadlock verification for its user.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker creates a Redis-backed locker on an existing client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire tries SETNX with a unique owner token, retrying until held, ctx is
// done, or the retry budget runs out.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	owner := uid.New()

	for i := 0; i < maxRetries; i++ {
		ok, err := l.client.SetNX(ctx, redisKey, owner, lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			release := func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := releaseIfOwnedScript.Run(releaseCtx, l.client, []string{redisKey}, owner).Err(); err != nil {
					log.Printf("[RedisLocker] Failed to release %s: %v", redisKey, err)
				}
			}
			return release, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}

	return nil, ErrLockHeld
}

// Ensure RedisLocker implements Locker
var _ Locker = (*RedisLocker)(nil)
