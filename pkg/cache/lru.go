package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// EvictReason describes why the cache dropped an entry on its own.
type EvictReason uint8

const (
	// ReasonCapacity means the entry was the least recently used one when a shard overflowed.
	ReasonCapacity EvictReason = iota + 1
	// ReasonExpired means the entry outlived its time-to-live.
	ReasonExpired
)

func (r EvictReason) String() string {
	switch r {
	case ReasonCapacity:
		return "capacity"
	case ReasonExpired:
		return "expired"
	default:
		return "unknown"
	}
}

type lruEntry[K ~string, V any] struct {
	key      K
	value    V
	expireAt time.Time // zero means the entry never expires
}

func (e *lruEntry[K, V]) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

type evictedEntry[K ~string, V any] struct {
	key    K
	value  V
	reason EvictReason
}

// shard is an independent LRU list with its own lock and capacity.
type shard[K ~string, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	eviction *list.List
}

func newShard[K ~string, V any](capacity int) *shard[K, V] {
	return &shard[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
	}
}

// LRUCache is a thread-safe, sharded LRU cache with optional per-entry expiry.
// When a shard reaches its capacity, its least recently used entry is evicted.
// Expired entries are never returned and are dropped lazily on access,
// under capacity pressure, or by the periodic sweep.
type LRUCache[K ~string, V any] struct {
	capacity int
	shards   []*shard[K, V]
	mask     uint64
	ttl      time.Duration
	now      func() time.Time
	anchor   func(V) time.Time

	cbMu    sync.RWMutex
	onEvict func(key K, value V, reason EvictReason) // invoked only for policy-driven drops

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewLRUCache creates a new LRU cache with the specified total capacity.
// The capacity must be positive, otherwise it panics.
func NewLRUCache[K ~string, V any](capacity int, opts ...Option) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("LRU cache capacity must be positive")
	}

	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	n := shardCount(capacity, o.shards)
	c := &LRUCache[K, V]{
		capacity: capacity,
		shards:   make([]*shard[K, V], n),
		mask:     uint64(n - 1),
		ttl:      o.ttl,
		now:      o.now,
	}

	if o.anchor != nil {
		fn, ok := o.anchor.(func(V) time.Time)
		if !ok {
			panic("WithExpiryAnchor: function type does not match cache value type")
		}
		c.anchor = fn
	}

	// Spread the remainder so that the shard capacities sum up to the total.
	for i := range n {
		shardCap := capacity / n
		if i < capacity%n {
			shardCap++
		}
		c.shards[i] = newShard[K, V](shardCap)
	}

	if o.sweepInterval > 0 && c.ttl > 0 {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go c.janitor(o.sweepInterval)
	}

	return c
}

// SetEvictCallback sets a callback invoked once for every entry the cache drops
// by itself, either because of capacity pressure or expiry.
// Remove and Clear never trigger it. The callback runs in the goroutine that
// caused the eviction while the shard lock is still held, so the dropped key is
// reported before any other goroutine can observe it missing. It must not block
// and must not call back into the cache.
func (c *LRUCache[K, V]) SetEvictCallback(fn func(key K, value V, reason EvictReason)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.onEvict = fn
}

// Get retrieves a value from the cache and marks it as recently used.
// Returns the value and true if found and not expired, zero value and false otherwise.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	now := c.now()

	s.mu.Lock()
	elem, ok := s.items[key]
	if !ok {
		s.mu.Unlock()
		var zero V
		return zero, false
	}

	entry := elem.Value.(*lruEntry[K, V])
	if entry.expired(now) {
		s.removeElement(elem)
		c.notify(evictedEntry[K, V]{key: entry.key, value: entry.value, reason: ReasonExpired})
		s.mu.Unlock()
		var zero V
		return zero, false
	}

	s.eviction.MoveToFront(elem)
	value := entry.value
	s.mu.Unlock()

	return value, true
}

// Peek returns a live value without changing its recency.
func (c *LRUCache[K, V]) Peek(key K) (V, bool) {
	s := c.shardFor(key)
	now := c.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		entry := elem.Value.(*lruEntry[K, V])
		if !entry.expired(now) {
			return entry.value, true
		}
	}

	var zero V
	return zero, false
}

// Put adds or updates a value in the cache and restarts its expiry clock.
// If the shard is at capacity, its least recently used entries are evicted.
// Returns the previous value if it existed, and a boolean indicating if it existed.
func (c *LRUCache[K, V]) Put(key K, value V) (V, bool) {
	s := c.shardFor(key)
	expireAt := c.deadline(value)

	s.mu.Lock()
	if elem, ok := s.items[key]; ok {
		s.eviction.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		oldValue := entry.value
		entry.value = value
		entry.expireAt = expireAt
		s.mu.Unlock()
		return oldValue, true
	}

	elem := s.eviction.PushFront(&lruEntry[K, V]{key: key, value: value, expireAt: expireAt})
	s.items[key] = elem

	if overflow := s.eviction.Len() - s.capacity; overflow > 0 {
		c.notify(s.evictOldest(overflow, c.now())...)
	}
	s.mu.Unlock()

	var zero V
	return zero, false
}

// Remove removes an item from the cache without invoking the evict callback.
// Returns the removed value and true if it existed, zero value and false otherwise.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	s := c.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		s.removeElement(elem)
		entry := elem.Value.(*lruEntry[K, V])
		return entry.value, true
	}

	var zero V
	return zero, false
}

// Clear removes all items from the cache without invoking the evict callback.
func (c *LRUCache[K, V]) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.items = make(map[K]*list.Element)
		s.eviction.Init()
		s.mu.Unlock()
	}
}

// Sweep drops every expired entry and returns how many were dropped.
func (c *LRUCache[K, V]) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}

	now := c.now()
	total := 0
	for _, s := range c.shards {
		s.mu.Lock()
		var dropped []evictedEntry[K, V]
		for elem := s.eviction.Back(); elem != nil; {
			prev := elem.Prev()
			entry := elem.Value.(*lruEntry[K, V])
			if entry.expired(now) {
				s.removeElement(elem)
				dropped = append(dropped, evictedEntry[K, V]{key: entry.key, value: entry.value, reason: ReasonExpired})
			}
			elem = prev
		}
		c.notify(dropped...)
		s.mu.Unlock()

		total += len(dropped)
	}

	return total
}

// Len returns the number of entries currently held, including expired
// entries that have not been swept yet.
func (c *LRUCache[K, V]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += s.eviction.Len()
		s.mu.Unlock()
	}
	return n
}

// Capacity returns the maximum number of entries the cache holds.
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// Shards returns the number of independently locked shards.
func (c *LRUCache[K, V]) Shards() int {
	return len(c.shards)
}

// Keys returns the cached keys shard by shard, most recently used first.
func (c *LRUCache[K, V]) Keys() []K {
	keys := make([]K, 0, c.Len())
	for _, s := range c.shards {
		s.mu.Lock()
		for elem := s.eviction.Front(); elem != nil; elem = elem.Next() {
			keys = append(keys, elem.Value.(*lruEntry[K, V]).key)
		}
		s.mu.Unlock()
	}
	return keys
}

// Close stops the background sweep. It is safe to call multiple times.
func (c *LRUCache[K, V]) Close() {
	c.closeOnce.Do(func() {
		if c.stop == nil {
			return
		}
		close(c.stop)
		<-c.done
	})
}

func (c *LRUCache[K, V]) shardFor(key K) *shard[K, V] {
	if c.mask == 0 {
		return c.shards[0]
	}
	return c.shards[xxhash.Sum64String(string(key))&c.mask]
}

func (c *LRUCache[K, V]) deadline(value V) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}

	anchor := c.now()
	if c.anchor != nil {
		if at := c.anchor(value); !at.IsZero() {
			anchor = at
		}
	}
	return anchor.Add(c.ttl)
}

// notify must be called with the shard lock held.
func (c *LRUCache[K, V]) notify(dropped ...evictedEntry[K, V]) {
	if len(dropped) == 0 {
		return
	}

	c.cbMu.RLock()
	fn := c.onEvict
	c.cbMu.RUnlock()

	if fn == nil {
		return
	}
	for _, e := range dropped {
		fn(e.key, e.value, e.reason)
	}
}

func (c *LRUCache[K, V]) janitor(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Must be called with lock held.
func (s *shard[K, V]) evictOldest(n int, now time.Time) []evictedEntry[K, V] {
	dropped := make([]evictedEntry[K, V], 0, n)
	for range n {
		elem := s.eviction.Back()
		if elem == nil {
			break
		}
		entry := elem.Value.(*lruEntry[K, V])
		reason := ReasonCapacity
		if entry.expired(now) {
			reason = ReasonExpired
		}
		s.removeElement(elem)
		dropped = append(dropped, evictedEntry[K, V]{key: entry.key, value: entry.value, reason: reason})
	}
	return dropped
}

// Must be called with lock held.
func (s *shard[K, V]) removeElement(elem *list.Element) {
	s.eviction.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(s.items, entry.key)
}
