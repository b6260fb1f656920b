package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/printmarket/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyKeyPrefix namespaces processed event IDs in Redis
const DefaultIdempotencyKeyPrefix = "printmarket:event:processed:"

// RedisIdempotencyStore implements IdempotencyStore on Redis, so that several
// server instances consuming the same outbox share one processed set.
// The client is owned by the caller and is not closed by Close.
type RedisIdempotencyStore struct {
	client    redis.Cmdable
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing client
func NewRedisIdempotencyStore(client redis.Cmdable, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = DefaultIdempotencyKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed claims eventID with SET NX and a TTL.
// Returns true if the event was newly marked, false if it was already processed.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+eventID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event %s as processed: %w", eventID, err)
	}
	return ok, nil
}

// Release deletes the claim on eventID
func (s *RedisIdempotencyStore) Release(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, s.keyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("failed to release event %s: %w", eventID, err)
	}
	return nil
}

// Close is a no-op; the shared client is closed by its owner
func (s *RedisIdempotencyStore) Close() error {
	return nil
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
