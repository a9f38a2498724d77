// Package cache provides a bounded, concurrency-safe LRU cache with TTL
// expiration and single-flight computation, plus the recommendation cache-key
// builder.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often the background sweeper removes expired
// entries when no interval is configured.
const DefaultSweepInterval = time.Minute

// perEntryOverhead approximates the bookkeeping cost of one entry for the
// ApproxBytes statistic.
const perEntryOverhead = 96

// Cache is a bounded LRU cache with optional per-entry TTL.
//
// All operations are safe for concurrent use. Capacity enforcement is a
// single code path shared by Set and GetOrCompute, so eviction order is
// identical regardless of how an entry was inserted.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	maxSize  int
	entries  map[K]*list.Element
	order    *list.List // front = most recently used
	inflight map[K]*flight[V]

	hits      uint64
	misses    uint64
	evictions uint64

	cost func(K, V) int
	now  func() time.Time

	sweepStop chan struct{}
	sweepOnce sync.Once
}

type entry[K comparable, V any] struct {
	key            K
	value          V
	insertedAt     time.Time
	lastAccessedAt time.Time
	expiresAt      time.Time // zero means no expiry
}

// flight tracks an in-progress computation for a key. Followers wait on done
// and then read val/err; both are written exactly once before close.
type flight[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithCost sets the function used to estimate per-entry memory for the
// ApproxBytes statistic.
func WithCost[K comparable, V any](cost func(K, V) int) Option[K, V] {
	return func(c *Cache[K, V]) { c.cost = cost }
}

// New creates a cache holding at most maxSize entries. maxSize values below
// one are treated as one.
func New[K comparable, V any](maxSize int, opts ...Option[K, V]) *Cache[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &Cache[K, V]{
		maxSize:  maxSize,
		entries:  make(map[K]*list.Element),
		order:    list.New(),
		inflight: make(map[K]*flight[V]),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value for key. Expired entries read as absent and are
// removed on observation.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lookupLocked(key)
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set inserts or overwrites key with no expiry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, 0)
}

// SetTTL inserts or overwrites key. A positive ttl sets an expiry instant;
// zero or negative means the entry never expires. Overwriting an existing
// key updates its value and expiry without changing cache size.
func (c *Cache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(key, value, ttl)
}

// GetOrCompute returns the cached value for key, or runs factory to produce
// one. Under concurrent calls for the same absent key, one caller runs the
// factory while the rest wait for its outcome; all observe the same value or
// the same error. A failed factory caches nothing, so a later call retries.
func (c *Cache[K, V]) GetOrCompute(ctx context.Context, key K, ttl time.Duration, factory func(ctx context.Context) (V, error)) (V, error) {
	var zero V

	c.mu.Lock()
	if e, ok := c.lookupLocked(key); ok {
		c.hits++
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.misses++

	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.val, f.err
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	f := &flight[V]{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	val, err := factory(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		c.storeLocked(key, val, ttl)
	}
	c.mu.Unlock()

	f.val, f.err = val, err
	close(f.done)

	return val, err
}

// Remove deletes key and reports whether it was present and live.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	e := elem.Value.(*entry[K, V])
	expired := c.expiredLocked(e)
	c.removeLocked(elem)
	return !expired
}

// Clear removes all entries. Statistics are preserved.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.order.Init()
}

// StartSweeper launches a background goroutine that periodically removes
// expired entries so memory stays bounded independent of access patterns.
// Stop terminates it. Calling StartSweeper twice is a no-op.
func (c *Cache[K, V]) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	c.sweepOnce.Do(func() {
		c.mu.Lock()
		c.sweepStop = make(chan struct{})
		c.mu.Unlock()
		go c.sweepLoop(interval)
	})
}

// Stop terminates the background sweeper, if running.
func (c *Cache[K, V]) Stop() {
	c.mu.Lock()
	stop := c.sweepStop
	c.sweepStop = nil
	c.mu.Unlock()
	if stop != nil {
		close(stop)
	}
}

// Sweep removes all expired entries now and returns how many were removed.
func (c *Cache[K, V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if e := elem.Value.(*entry[K, V]); c.expiredLocked(e) {
			c.removeLocked(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *Cache[K, V]) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.mu.Lock()
	stop := c.sweepStop
	c.mu.Unlock()
	if stop == nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-stop:
			return
		}
	}
}

// lookupLocked returns the live entry for key, refreshing its recency.
// Expired entries are removed and read as absent.
func (c *Cache[K, V]) lookupLocked(key K) (*entry[K, V], bool) {
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry[K, V])
	if c.expiredLocked(e) {
		c.removeLocked(elem)
		return nil, false
	}
	e.lastAccessedAt = c.now()
	c.order.MoveToFront(elem)
	return e, true
}

// storeLocked is the single insertion path for both Set and GetOrCompute.
func (c *Cache[K, V]) storeLocked(key K, value V, ttl time.Duration) {
	now := c.now()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	if elem, ok := c.entries[key]; ok {
		e := elem.Value.(*entry[K, V])
		e.value = value
		e.lastAccessedAt = now
		e.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	e := &entry[K, V]{
		key:            key,
		value:          value,
		insertedAt:     now,
		lastAccessedAt: now,
		expiresAt:      expiresAt,
	}
	c.entries[key] = c.order.PushFront(e)

	for len(c.entries) > c.maxSize {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
		c.evictions++
	}
}

func (c *Cache[K, V]) removeLocked(elem *list.Element) {
	e := elem.Value.(*entry[K, V])
	delete(c.entries, e.key)
	c.order.Remove(elem)
}

func (c *Cache[K, V]) expiredLocked(e *entry[K, V]) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}
