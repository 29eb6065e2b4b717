package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OwnerLocks serializes mutations per owner. Operations on different owners
// proceed in parallel; two mutations on the same owner never interleave
// between the balance read and the posting write.
//
// The lock is process-local. Cross-process safety comes from the store:
// the Postgres implementation takes an advisory transaction lock on the
// owner and runs the history guard inside that transaction. This keyed
// mutex bounds contention within one instance and keeps the guard correct
// for stores without their own locking, such as the in-memory one.
type OwnerLocks struct {
	mu      sync.Mutex
	timeout time.Duration
	locks   map[uuid.UUID]*ownerLock
}

type ownerLock struct {
	sem  chan struct{}
	refs int
}

// NewOwnerLocks creates a lock set. Acquire fails with ErrLockTimeout after
// the configured timeout.
func NewOwnerLocks(timeout time.Duration) *OwnerLocks {
	return &OwnerLocks{
		timeout: timeout,
		locks:   make(map[uuid.UUID]*ownerLock),
	}
}

// Acquire blocks until the owner's lock is held, the context is canceled,
// or the timeout elapses. Cancellation surfaces the context's error;
// only an exhausted timeout reports ErrLockTimeout. The returned release
// function must be called on every exit path; deferring it immediately
// after a successful Acquire is the expected usage.
func (l *OwnerLocks) Acquire(ctx context.Context, ownerID uuid.UUID) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &ownerLock{sem: make(chan struct{}, 1)}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case entry.sem <- struct{}{}:
		return func() {
			<-entry.sem
			l.put(ownerID, entry)
		}, nil
	case <-ctx.Done():
		l.put(ownerID, entry)
		return nil, ctx.Err()
	case <-timer.C:
		l.put(ownerID, entry)
		return nil, ErrLockTimeout{OwnerID: ownerID}
	}
}

// put drops one reference and frees the map slot once nobody is waiting.
func (l *OwnerLocks) put(ownerID uuid.UUID, entry *ownerLock) {
	l.mu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, ownerID)
	}
	l.mu.Unlock()
}
