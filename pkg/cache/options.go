package cache

import "time"

const (
	maxShards         = 64
	minShardCapacity  = 256
	defaultShardCount = 0
)

// Option configures an LRUCache.
type Option func(*options)

type options struct {
	ttl           time.Duration
	sweepInterval time.Duration
	shards        int
	now           func() time.Time
	anchor        any // func(V) time.Time, checked against V in NewLRUCache
}

// WithTTL sets how long an entry stays valid after it was last put.
// Zero or negative disables expiry.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithSweepInterval starts a background sweep that drops expired entries
// at the given interval. Without it expiry is only checked on access and
// under capacity pressure.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.sweepInterval = d
		}
	}
}

// WithShards splits the cache into n independently locked shards.
// n is rounded up to a power of two and capped so that every shard holds at least one entry.
// Recency is tracked per shard, so least-recently-used order is exact only with one shard.
func WithShards(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shards = n
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithExpiryAnchor derives the start of an entry's time-to-live from its value
// instead of the moment it was put. A zero anchor falls back to the current time.
// The function's type parameter must match the cache value type, otherwise NewLRUCache panics.
func WithExpiryAnchor[V any](fn func(V) time.Time) Option {
	return func(o *options) {
		if fn != nil {
			o.anchor = fn
		}
	}
}

// shardCount picks a power-of-two shard count. Small caches get a single shard
// so that eviction order is exact; larger ones get up to maxShards.
func shardCount(capacity, requested int) int {
	n := 1
	if requested == defaultShardCount {
		for n*2 <= maxShards && capacity/(n*2) >= minShardCapacity {
			n *= 2
		}
		return n
	}

	for n < requested && n < maxShards {
		n *= 2
	}
	for n > 1 && n > capacity {
		n /= 2
	}
	return n
}
