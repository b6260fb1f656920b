package cache

import (
	"context"
	"sync"
	"time"

	"github.com/printmarket/backend/internal/domain/shared"
)

// MemoryIdempotencyStore implements IdempotencyStore with a map guarded by a
// mutex. State is per process, so it only suits single-instance deployments
// and tests.
type MemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiries  map[string]time.Time
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// MemoryStoreOption configures a MemoryIdempotencyStore
type MemoryStoreOption func(*memoryStoreOptions)

type memoryStoreOptions struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired entries are dropped. Zero or a
// negative value disables the background sweep.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(o *memoryStoreOptions) {
		o.cleanupInterval = d
	}
}

// WithStoreClock overrides the time source used for expiry
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(o *memoryStoreOptions) {
		o.now = now
	}
}

// NewMemoryIdempotencyStore creates a store and starts its cleanup sweep
func NewMemoryIdempotencyStore(opts ...MemoryStoreOption) *MemoryIdempotencyStore {
	o := memoryStoreOptions{
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &MemoryIdempotencyStore{
		expiries: make(map[string]time.Time),
		now:      o.now,
		stop:     make(chan struct{}),
	}
	if o.cleanupInterval > 0 {
		s.wg.Add(1)
		go s.sweep(o.cleanupInterval)
	}
	return s
}

// MarkProcessed claims eventID until ttl elapses.
// Returns true if the event was newly marked, false if it was already processed.
func (s *MemoryIdempotencyStore) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiries[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiries[eventID] = now.Add(ttl)
	return true, nil
}

// Release forgets eventID
func (s *MemoryIdempotencyStore) Release(_ context.Context, eventID string) error {
	s.mu.Lock()
	delete(s.expiries, eventID)
	s.mu.Unlock()
	return nil
}

// Close stops the cleanup sweep. Safe to call multiple times.
func (s *MemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Len returns the number of unexpired and not yet swept entries
func (s *MemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiries)
}

func (s *MemoryIdempotencyStore) sweep(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.dropExpired()
		}
	}
}

func (s *MemoryIdempotencyStore) dropExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.expiries {
		if !now.Before(exp) {
			delete(s.expiries, id)
		}
	}
}

var _ shared.IdempotencyStore = (*MemoryIdempotencyStore)(nil)
