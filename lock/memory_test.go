package lock_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops/lock"
)

func TestMemoryExclusive(t *testing.T) {
	l := lock.NewMemory()
	ctx := context.Background()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "k", time.Second)
			if err != nil {
				t.Error(err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				cur := atomic.LoadInt32(&maxSeen)
				if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			_ = release(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestMemoryTimeout(t *testing.T) {
	l := lock.NewMemory()
	release, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	defer func() { _ = release(context.Background()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, lock.ErrNotAcquired)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryIndependentKeys(t *testing.T) {
	l := lock.NewMemory()
	ctx := context.Background()

	r1, err := l.Acquire(ctx, lock.Key("subscription", "a"), time.Second)
	require.NoError(t, err)
	r2, err := l.Acquire(ctx, lock.Key("subscription", "b"), time.Second)
	require.NoError(t, err)

	require.NoError(t, r1(ctx))
	require.NoError(t, r2(ctx))
}

func TestMemoryReleaseIdempotent(t *testing.T) {
	l := lock.NewMemory()
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
