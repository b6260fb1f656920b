package cache

import (
	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore returns a Redis-backed store when client is non-nil and
// falls back to the in-process store otherwise
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client != nil {
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, DefaultIdempotencyKeyPrefix)
	}

	logger.Warn("Redis not configured, using in-memory idempotency store. " +
		"Events may be handled twice when several instances run.")
	return NewMemoryIdempotencyStore()
}
