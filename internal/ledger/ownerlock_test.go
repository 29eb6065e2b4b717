package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerLocks_Acquire(t *testing.T) {
	ctx := context.Background()

	t.Run("SerializesSameOwner", func(t *testing.T) {
		locks := NewOwnerLocks(time.Second)
		ownerID := uuid.New()

		release, err := locks.Acquire(ctx, ownerID)
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			release2, err := locks.Acquire(ctx, ownerID)
			if err == nil {
				close(acquired)
				release2()
			}
		}()

		select {
		case <-acquired:
			t.Fatal("second acquire should block while the lock is held")
		case <-time.After(50 * time.Millisecond):
		}

		release()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("second acquire should proceed after release")
		}
	})

	t.Run("DifferentOwnersDoNotBlock", func(t *testing.T) {
		locks := NewOwnerLocks(100 * time.Millisecond)

		releaseA, err := locks.Acquire(ctx, uuid.New())
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := locks.Acquire(ctx, uuid.New())
		require.NoError(t, err)
		releaseB()
	})

	t.Run("TimesOut", func(t *testing.T) {
		locks := NewOwnerLocks(50 * time.Millisecond)
		ownerID := uuid.New()

		release, err := locks.Acquire(ctx, ownerID)
		require.NoError(t, err)
		defer release()

		start := time.Now()
		_, err = locks.Acquire(ctx, ownerID)
		assert.ErrorIs(t, err, ErrLockTimeout{OwnerID: ownerID})
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		locks := NewOwnerLocks(10 * time.Second)
		ownerID := uuid.New()

		release, err := locks.Acquire(ctx, ownerID)
		require.NoError(t, err)
		defer release()

		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err = locks.Acquire(cancelCtx, ownerID)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrLockTimeout{}, "cancellation must not masquerade as lock contention")
	})

	t.Run("MapEntryFreedWhenIdle", func(t *testing.T) {
		locks := NewOwnerLocks(time.Second)
		ownerID := uuid.New()

		release, err := locks.Acquire(ctx, ownerID)
		require.NoError(t, err)
		release()

		locks.mu.Lock()
		_, stillThere := locks.locks[ownerID]
		locks.mu.Unlock()
		assert.False(t, stillThere, "released lock with no waiters should be dropped")
	})

	t.Run("ManyContenders", func(t *testing.T) {
		locks := NewOwnerLocks(5 * time.Second)
		ownerID := uuid.New()

		var wg sync.WaitGroup
		var mu sync.Mutex
		inCritical := 0
		maxInCritical := 0

		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release, err := locks.Acquire(ctx, ownerID)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				inCritical++
				if inCritical > maxInCritical {
					maxInCritical = inCritical
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inCritical--
				mu.Unlock()
				release()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxInCritical, "critical section must never be shared")

		locks.mu.Lock()
		assert.Empty(t, locks.locks)
		locks.mu.Unlock()
	})
}
