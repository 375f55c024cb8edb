package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCustomerLocker_Acquire(t *testing.T) {
	t.Run("acquires a free lock immediately", func(t *testing.T) {
		locker := NewInMemoryCustomerLocker()
		customerID := uuid.New()

		release, err := locker.Acquire(context.Background(), customerID, 100*time.Millisecond)

		require.NoError(t, err)
		require.NotNil(t, release)
		release()
	})

	t.Run("times out when the lock is held", func(t *testing.T) {
		locker := NewInMemoryCustomerLocker()
		customerID := uuid.New()

		release, err := locker.Acquire(context.Background(), customerID, 100*time.Millisecond)
		require.NoError(t, err)
		defer release()

		_, err = locker.Acquire(context.Background(), customerID, 30*time.Millisecond)

		assert.Equal(t, shared.ErrLockTimeout, err)
	})

	t.Run("different customers do not contend", func(t *testing.T) {
		locker := NewInMemoryCustomerLocker()

		releaseA, err := locker.Acquire(context.Background(), uuid.New(), 50*time.Millisecond)
		require.NoError(t, err)
		defer releaseA()

		releaseB, err := locker.Acquire(context.Background(), uuid.New(), 50*time.Millisecond)
		require.NoError(t, err)
		defer releaseB()
	})

	t.Run("release hands the lock to a waiter", func(t *testing.T) {
		locker := NewInMemoryCustomerLocker()
		customerID := uuid.New()

		release, err := locker.Acquire(context.Background(), customerID, 50*time.Millisecond)
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			release2, err := locker.Acquire(context.Background(), customerID, time.Second)
			assert.NoError(t, err)
			release2()
			close(acquired)
		}()

		release()

		select {
		case <-acquired:
		case <-time.After(time.Second):
			t.Fatal("waiter did not acquire the lock after release")
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		locker := NewInMemoryCustomerLocker()
		customerID := uuid.New()

		release, err := locker.Acquire(context.Background(), customerID, 50*time.Millisecond)
		require.NoError(t, err)
		defer release()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = locker.Acquire(ctx, customerID, time.Second)

		assert.Equal(t, context.Canceled, err)
	})
}

func TestInMemoryCustomerLocker_Exclusion(t *testing.T) {
	locker := NewInMemoryCustomerLocker()
	customerID := uuid.New()

	var counter, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), customerID, 5*time.Second)
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			counter++
			if counter > max {
				max = counter
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			counter--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "lock must admit one holder at a time")
}

func TestInMemoryCustomerLocker_Cleanup(t *testing.T) {
	locker := NewInMemoryCustomerLocker()
	customerID := uuid.New()

	release, err := locker.Acquire(context.Background(), customerID, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, locker.Size())

	release()
	assert.Equal(t, 0, locker.Size(), "idle entries are removed")
}
