package lock

import (
	"fmt"

	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/printmarket/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New builds the locker selected by cfg.LockBackend. The redis backend
// requires a connected client.
func New(cfg config.OrderConfig, client *redis.Client, logger *zap.Logger) (shared.Locker, error) {
	switch cfg.LockBackend {
	case config.LockBackendMemory, "":
		return NewMemoryLocker(), nil
	case config.LockBackendRedis:
		if client == nil {
			return nil, fmt.Errorf("order.lock_backend=redis requires a redis connection")
		}
		return NewRedisLocker(client, cfg.LockTTL, WithLockLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
	}
}
