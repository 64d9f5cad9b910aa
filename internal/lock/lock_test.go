package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerSerializesKey(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			release, err := locker.Acquire(ctx, "user-1")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, order, 10)
}

func TestMemoryLockerIndependentKeys(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	releaseA, err := locker.Acquire(ctx, "user-a")
	require.NoError(t, err)
	defer releaseA()

	// A held lock on another key must not block this one.
	done := make(chan struct{})
	go func() {
		releaseB, err := locker.Acquire(ctx, "user-b")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent key blocked")
	}
}

func TestMemoryLockerContextCancel(t *testing.T) {
	locker := NewMemoryLocker()

	release, err := locker.Acquire(context.Background(), "user-1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = locker.Acquire(ctx, "user-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryLockerReleaseIdempotent(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "user-1")
	require.NoError(t, err)
	release()
	release() // second call is a no-op

	release2, err := locker.Acquire(ctx, "user-1")
	require.NoError(t, err)
	release2()
}
