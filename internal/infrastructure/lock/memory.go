// Package lock provides shared.Locker implementations used to serialize
// mutations of a single order.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/printmarket/backend/internal/domain/shared"
)

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

// MemoryLocker is an in-process keyed mutex. Entries are dropped once no
// caller holds or waits for them, so the map does not grow with the number
// of orders ever touched.
type MemoryLocker struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

// NewMemoryLocker creates an empty MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{entries: make(map[string]*keyedEntry)}
}

// Acquire waits up to wait for key. A non-positive wait tries once.
func (l *MemoryLocker) Acquire(ctx context.Context, key string, wait time.Duration) (shared.Unlock, error) {
	e := l.ref(key)

	select {
	case e.sem <- struct{}{}:
		return l.unlocker(key, e), nil
	default:
	}
	if wait <= 0 {
		l.unref(key, e)
		return nil, errLockBusy(key, wait)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return l.unlocker(key, e), nil
	case <-timer.C:
		l.unref(key, e)
		return nil, errLockBusy(key, wait)
	case <-ctx.Done():
		l.unref(key, e)
		return nil, ctx.Err()
	}
}

// Len returns the number of keys currently held or awaited
func (l *MemoryLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *MemoryLocker) ref(key string) *keyedEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *MemoryLocker) unref(key string, e *keyedEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *MemoryLocker) unlocker(key string, e *keyedEntry) shared.Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			l.unref(key, e)
		})
	}
}

func errLockBusy(key string, wait time.Duration) error {
	return shared.NewDomainError(shared.ErrContention.Code,
		fmt.Sprintf("%s is being modified by another request (waited %s), retry later", key, wait))
}

var _ shared.Locker = (*MemoryLocker)(nil)
