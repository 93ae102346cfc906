// internal/store/cache/locker.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/josephinoo/agent-bg/internal/common/logger"
)

var ErrLockNotAcquired = errors.New("SESSION_LOCK_TIMEOUT")

const (
	lockKeyPrefix       = "conv:lock:"
	DefaultLockTTL      = 30 * time.Second
	defaultPollInterval = 50 * time.Millisecond
	releaseTimeout      = 2 * time.Second
)

// Deletes the key only while it still holds our token, so an expired lock
// taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a per-key lock shared by every service instance using the
// same Redis. The TTL bounds how long a crashed holder blocks the key.
type RedisLocker struct {
	client       *redis.Client
	ttl          time.Duration
	pollInterval time.Duration
	logger       logger.Logger
}

func NewRedisLocker(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{
		client:       client,
		ttl:          ttl,
		pollInterval: defaultPollInterval,
		logger:       logger.ForComponent(log, "session-lock"),
	}
}

// Acquire blocks until the lock for key is held or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := lockKeyPrefix + key
	token := uuid.New().String()

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, err)
		}
		if ok {
			return func() { l.release(lockKey, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) release(lockKey, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		l.logger.Warn("Session lock release failed", map[string]interface{}{
			"key":   lockKey,
			"error": err.Error(),
		})
	}
}
