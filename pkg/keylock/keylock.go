// Package keylock provides per-key mutexes that are allocated on first use
// and released once nobody holds or waits for them.
//
// Two different keys never share a mutex, so a long critical section on one
// key does not delay any other key. The per-key table is split into shards
// picked with xxhash, which keeps the table lock short and uncontended.
//
//	locks := keylock.New(32)
//
//	unlock := locks.Lock("user:42")
//	defer unlock()
//
// LockAll waits for every current key holder and keeps new ones out until
// it is released. A goroutine must not hold more than one key at a time.
package keylock

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultShards is used when New receives a non-positive count.
const DefaultShards = 32

type keyMutex struct {
	mu   sync.Mutex
	refs int // holders plus waiters, guarded by the shard lock
}

type shard struct {
	mu   sync.Mutex
	keys map[string]*keyMutex
}

// Locker hands out one mutex per key.
type Locker struct {
	all    sync.RWMutex
	shards []shard
	mask   uint64
}

// New creates a Locker whose key table is split into n shards, rounded up
// to a power of two.
func New(n int) *Locker {
	if n <= 0 {
		n = DefaultShards
	}
	size := 1
	for size < n {
		size <<= 1
	}
	l := &Locker{
		shards: make([]shard, size),
		mask:   uint64(size - 1),
	}
	for i := range l.shards {
		l.shards[i].keys = make(map[string]*keyMutex)
	}
	return l
}

// Lock acquires the mutex for key and returns the matching unlock function.
func (l *Locker) Lock(key string) func() {
	l.all.RLock()

	s := &l.shards[xxhash.Sum64String(key)&l.mask]
	s.mu.Lock()
	km, ok := s.keys[key]
	if !ok {
		km = &keyMutex{}
		s.keys[key] = km
	}
	km.refs++
	s.mu.Unlock()

	km.mu.Lock()

	return func() {
		km.mu.Unlock()

		s.mu.Lock()
		km.refs--
		if km.refs == 0 {
			delete(s.keys, key)
		}
		s.mu.Unlock()

		l.all.RUnlock()
	}
}

// LockAll excludes every key holder and returns a function releasing them.
func (l *Locker) LockAll() func() {
	l.all.Lock()
	return l.all.Unlock
}

// Len returns the number of keys currently held or waited for.
func (l *Locker) Len() int {
	n := 0
	for i := range l.shards {
		s := &l.shards[i]
		s.mu.Lock()
		n += len(s.keys)
		s.mu.Unlock()
	}
	return n
}
