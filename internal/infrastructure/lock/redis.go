package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultRedisKeyPrefix namespaces lock keys in Redis
	DefaultRedisKeyPrefix = "printmarket:lock:"

	defaultRetryInterval = 25 * time.Millisecond
	releaseTimeout       = 2 * time.Second
)

// releaseScript deletes the key only while it still carries our token, so an
// expired lock that another instance re-acquired is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX with a random
// token). The TTL bounds how long a crashed holder blocks the key.
type RedisLocker struct {
	client        redis.Cmdable
	ttl           time.Duration
	retryInterval time.Duration
	prefix        string
	logger        *zap.Logger
}

// RedisLockerOption configures a RedisLocker
type RedisLockerOption func(*RedisLocker)

// WithRetryInterval sets the polling interval while the key is held elsewhere
func WithRetryInterval(d time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

// WithKeyPrefix overrides DefaultRedisKeyPrefix
func WithKeyPrefix(prefix string) RedisLockerOption {
	return func(l *RedisLocker) {
		l.prefix = prefix
	}
}

// WithLockLogger sets the logger used for release failures
func WithLockLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewRedisLocker creates a locker whose keys expire after ttl
func NewRedisLocker(client redis.Cmdable, ttl time.Duration, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		prefix:        DefaultRedisKeyPrefix,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire polls SET NX until it wins or wait runs out
func (l *RedisLocker) Acquire(ctx context.Context, key string, wait time.Duration) (shared.Unlock, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errLockBusy(key, wait)
		}
		pause := l.retryInterval
		if pause > remaining {
			pause = remaining
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) unlocker(redisKey, token string) shared.Unlock {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(redisKey, token) })
	}
}

func (l *RedisLocker) release(redisKey, token string) {
	// The caller's context may already be canceled when the lock is released.
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
		l.logger.Warn("failed to release redis lock, it will expire on its own",
			zap.String("key", redisKey),
			zap.Duration("ttl", l.ttl),
			zap.Error(err),
		)
	}
}

var _ shared.Locker = (*RedisLocker)(nil)
