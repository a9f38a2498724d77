package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := New[string, string](10)

	c.Set("a", "1")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestOverwriteKeepsSize(t *testing.T) {
	c := New[string, int](10)

	c.Set("a", 1)
	c.Set("a", 2)
	c.SetTTL("a", 3, time.Hour)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestLRUEvictionSetPath(t *testing.T) {
	c := New[string, int](3)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used key should be evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %q should survive", key)
	}
	assert.Equal(t, uint64(1), c.Stats().Evictions)
}

func TestLRUEvictionComputePath(t *testing.T) {
	c := New[string, int](3)
	ctx := context.Background()

	for i, key := range []string{"a", "b", "c"} {
		_, err := c.GetOrCompute(ctx, key, 0, func(context.Context) (int, error) {
			return i, nil
		})
		require.NoError(t, err)
	}

	_, ok := c.Get("a")
	require.True(t, ok)

	// Insertion through the compute path must evict identically to Set.
	_, err := c.GetOrCompute(ctx, "d", 0, func(context.Context) (int, error) {
		return 4, nil
	})
	require.NoError(t, err)

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used key should be evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "key %q should survive", key)
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	c := New[string, int](10)

	var calls atomic.Int32
	const goroutines = 50

	start := make(chan struct{})
	results := make([]int, goroutines)
	errs := make([]error, goroutines)

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], errs[i] = c.GetOrCompute(context.Background(), "key", 0, func(context.Context) (int, error) {
				calls.Add(1)
				time.Sleep(20 * time.Millisecond)
				return 42, nil
			})
		}()
	}
	close(start)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(3), "factory must not stampede")
	for i := range goroutines {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	c := New[string, int](10)
	ctx := context.Background()

	var calls int
	boom := fmt.Errorf("provider down")

	_, err := c.GetOrCompute(ctx, "key", 0, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	// No negative caching: the next call retries the factory.
	v, err := c.GetOrCompute(ctx, "key", 0, func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 2, calls)
}

func TestGetOrComputeWaiterSeesError(t *testing.T) {
	c := New[string, int](10)
	boom := fmt.Errorf("provider down")

	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = c.GetOrCompute(context.Background(), "key", 0, func(context.Context) (int, error) {
			close(entered)
			<-release
			return 0, boom
		})
	}()

	<-entered
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(context.Background(), "key", 0, func(context.Context) (int, error) {
			t.Error("waiter must not start a second computation")
			return 0, nil
		})
		done <- err
	}()

	// Give the waiter time to attach to the in-flight computation.
	time.Sleep(10 * time.Millisecond)
	close(release)

	require.ErrorIs(t, <-done, boom)
}

func TestGetOrComputeWaiterCancellation(t *testing.T) {
	c := New[string, int](10)

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_, _ = c.GetOrCompute(context.Background(), "key", 0, func(context.Context) (int, error) {
			close(entered)
			<-release
			return 1, nil
		})
	}()

	<-entered
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetOrCompute(ctx, "key", 0, func(context.Context) (int, error) {
		return 2, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTTLExpiry(t *testing.T) {
	c := New[string, int](10)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.SetTTL("a", 1, time.Second)
	c.Set("forever", 2)

	_, ok := c.Get("a")
	require.True(t, ok)

	now = now.Add(2 * time.Second)

	// Expired entries read as absent without any cleanup call.
	_, ok = c.Get("a")
	assert.False(t, ok)

	_, ok = c.Get("forever")
	assert.True(t, ok, "entries without TTL never expire")
}

func TestSweepRemovesExpired(t *testing.T) {
	c := New[string, int](10)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.SetTTL("a", 1, time.Second)
	c.SetTTL("b", 2, time.Second)
	c.Set("c", 3)

	now = now.Add(2 * time.Second)

	removed := c.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Stats().Size)
}

func TestExpiredEntryRecomputed(t *testing.T) {
	c := New[string, int](10)

	now := time.Now()
	c.now = func() time.Time { return now }

	ctx := context.Background()
	calls := 0
	factory := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrCompute(ctx, "key", time.Second, factory)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Second)

	v, err = c.GetOrCompute(ctx, "key", time.Second, factory)
	require.NoError(t, err)
	assert.Equal(t, 2, v, "expired entry should trigger recompute")
}

func TestRemoveAndClear(t *testing.T) {
	c := New[string, int](10)

	c.Set("a", 1)
	c.Set("b", 2)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.False(t, c.Remove("missing"))

	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
	_, ok := c.Get("b")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	c := New[string, string](2)

	c.Set("a", "value-a")
	_, _ = c.Get("a")
	_, _ = c.Get("missing")
	c.Set("b", "value-b")
	c.Set("c", "value-c") // evicts

	s := c.Stats()
	assert.Equal(t, 2, s.Size)
	assert.Equal(t, 2, s.MaxSize)
	assert.Equal(t, uint64(1), s.Hits)
	assert.Equal(t, uint64(1), s.Misses)
	assert.Equal(t, uint64(1), s.Evictions)
	assert.InDelta(t, 0.5, s.HitRate, 0.001)
	assert.Positive(t, s.ApproxBytes)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int, int](64)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 500 {
				key := (g*500 + i) % 100
				switch i % 3 {
				case 0:
					c.Set(key, i)
				case 1:
					c.Get(key)
				case 2:
					_, _ = c.GetOrCompute(context.Background(), key, time.Millisecond, func(context.Context) (int, error) {
						return i, nil
					})
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Stats().Size, 64)
}

func TestSweeperLifecycle(t *testing.T) {
	c := New[string, int](10)
	c.StartSweeper(5 * time.Millisecond)
	c.StartSweeper(5 * time.Millisecond) // second call is a no-op

	c.SetTTL("a", 1, time.Millisecond)
	time.Sleep(25 * time.Millisecond)

	assert.Equal(t, 0, c.Stats().Size)
	c.Stop()
	c.Stop() // idempotent
}
