// Package cache provides a generic, thread-safe LRU (Least Recently Used) cache
// with optional time-to-live, built for sitting in front of a slower durable store.
//
// The cache automatically evicts the least recently used items when it reaches
// its configured capacity and drops entries once their time-to-live has passed.
// Every entry dropped by policy is reported through an eviction callback, which
// makes the cache usable as the front half of a write-back pipeline.
//
// # Key Features
//
//   - Generic implementation over string-like keys and any value type
//   - Sharded storage: keys are spread over independently locked shards with xxhash
//   - Automatic LRU eviction when a shard exceeds its capacity
//   - Per-entry expiry, checked lazily on access, under capacity pressure and by
//     an optional background sweep
//   - Eviction callbacks only for policy-driven drops (capacity, expiry); Remove
//     and Clear are silent
//   - Callbacks run under the shard lock, before the dropped key can be seen missing
//
// # Usage
//
//	c := cache.NewLRUCache[string, Session](100,
//		cache.WithTTL(10*time.Minute),
//		cache.WithSweepInterval(time.Minute),
//	)
//	defer c.Close()
//
//	c.Put("session:abc", sess)
//
//	if s, ok := c.Get("session:abc"); ok {
//		// Use s
//	}
//
//	c.Remove("session:abc") // no callback
//	c.Clear()               // no callback
//
// # Eviction Callbacks
//
//	c.SetEvictCallback(func(key string, s Session, reason cache.EvictReason) {
//		queue.Push(key, s) // must not block
//	})
//
// The callback fires exactly once per entry dropped because of capacity pressure
// (ReasonCapacity) or expiry (ReasonExpired). It is invoked in the goroutine that
// triggered the drop while the shard lock is held: whatever it records about the
// key happens before a later Put of the same key. It must not block or call
// back into the cache, so heavy work belongs in a queue consumed elsewhere.
//
// # Expiry Anchor
//
// By default an entry's time-to-live starts when it is put. WithExpiryAnchor lets the
// value carry its own timestamp, for example a "last accessed" field, so the deadline
// is computed from data rather than from the moment of insertion:
//
//	cache.WithExpiryAnchor(func(s Session) time.Time { return s.LastSeen })
//
// # Sharding
//
// Caches below 512 entries use a single shard by default, which keeps
// least-recently-used order exact. Every operation on such a cache takes the
// same mutex; critical sections are O(1) and never span I/O, but unrelated keys
// do serialize on it. WithShards trades exact order for parallelism at any size.
// Larger caches are split automatically into up to 64 shards; capacity is divided
// between shards so the total never exceeds the configured maximum, and recency
// is tracked per shard.
//
// # Performance Characteristics
//
//   - Get, Put, Remove: O(1) average case, one shard lock
//   - Sweep: O(n) over all entries, one shard locked at a time
package cache
