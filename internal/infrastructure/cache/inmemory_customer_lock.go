package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/salesledger/backend/internal/domain/shared"
)

// lockEntry is a per-customer mutex with a waiter count so idle entries
// can be removed from the map
type lockEntry struct {
	ch   chan struct{}
	refs int
}

// InMemoryCustomerLocker implements CustomerLocker using per-customer
// channel mutexes. This is suitable for single-instance deployments
// and testing.
type InMemoryCustomerLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

// NewInMemoryCustomerLocker creates a new in-memory customer locker
func NewInMemoryCustomerLocker() *InMemoryCustomerLocker {
	return &InMemoryCustomerLocker{
		locks: make(map[uuid.UUID]*lockEntry),
	}
}

// Acquire takes the customer's exclusive lock, waiting up to timeout.
// It returns a release function on success and ErrLockTimeout when the
// wait is exhausted.
func (l *InMemoryCustomerLocker) Acquire(ctx context.Context, customerID uuid.UUID, timeout time.Duration) (func(), error) {
	entry := l.ref(customerID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case entry.ch <- struct{}{}:
		return func() {
			<-entry.ch
			l.unref(customerID)
		}, nil
	case <-timer.C:
		l.unref(customerID)
		return nil, shared.ErrLockTimeout
	case <-ctx.Done():
		l.unref(customerID)
		return nil, ctx.Err()
	}
}

// ref returns the customer's lock entry, creating it on first use
func (l *InMemoryCustomerLocker) ref(customerID uuid.UUID) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[customerID]
	if !exists {
		entry = &lockEntry{ch: make(chan struct{}, 1)}
		l.locks[customerID] = entry
	}
	entry.refs++
	return entry
}

// unref drops one reference and removes the entry once nobody holds or
// waits for it
func (l *InMemoryCustomerLocker) unref(customerID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.locks[customerID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(l.locks, customerID)
	}
}

// Size returns the number of tracked customer locks (for testing/monitoring)
func (l *InMemoryCustomerLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Ensure InMemoryCustomerLocker implements CustomerLocker
var _ invoicing.CustomerLocker = (*InMemoryCustomerLocker)(nil)
