package entitycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/cachekeeper/pkg/cache"
	"github.com/dmitrymomot/cachekeeper/pkg/keylock"
	"github.com/dmitrymomot/cachekeeper/pkg/logger"
)

const (
	opAdd       = "add"
	opGet       = "get"
	opRemove    = "remove"
	opRemoveAll = "remove_all"
	opClear     = "clear"
)

// Stats describes the cache state for diagnostics.
type Stats struct {
	Entries         int            `json:"entries"`
	Capacity        int            `json:"capacity"`
	Hits            uint64         `json:"hits"`
	Misses          uint64         `json:"misses"`
	CapacityEvicted uint64         `json:"capacity_evicted"`
	ExpiredEvicted  uint64         `json:"expired_evicted"`
	WriteBack       WriteBackStats `json:"write_back"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Nil keeps the discarding default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for both the Service and its cache.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service keeps a bounded in-memory cache consistent with a durable Store.
//
// Every mutation is written to the store first and reaches the cache only
// after the store accepted it. Operations on the same key are serialized by
// a per-key lock; entities the cache drops by itself are handed to the
// WriteBack. A Service must be created with New.
type Service struct {
	store     Store
	cache     *cache.LRUCache[string, Entity]
	locks     *keylock.Locker
	writeBack *WriteBack
	timeout   time.Duration
	refresh   time.Duration
	now       func() time.Time
	logger    *slog.Logger

	hits            atomic.Uint64
	misses          atomic.Uint64
	capacityEvicted atomic.Uint64
	expiredEvicted  atomic.Uint64
}

// New builds a Service over store. The write-back workers are not running
// until Start or Run is called.
func New(store Store, cfg Config, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("entitycache: store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("entitycache: %w", err)
	}

	s := &Service{
		store:   store,
		locks:   keylock.New(cfg.LockShards),
		timeout: cfg.StoreTimeout,
		refresh: cfg.RefreshInterval,
		now:     time.Now,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("entitycache"))

	s.writeBack = NewWriteBack(store, s.locks, cfg.WriteBackWorkers, cfg.StoreTimeout, s.logger)
	s.cache = cache.NewLRUCache[string, Entity](cfg.MaxEntries,
		cache.WithTTL(cfg.TTL),
		cache.WithShards(cfg.Shards),
		cache.WithSweepInterval(cfg.SweepInterval),
		cache.WithClock(s.now),
		cache.WithExpiryAnchor(lastAccessed),
	)
	s.cache.SetEvictCallback(s.onEvict)

	return s, nil
}

// Add validates e, stamps it past any timestamp already known for the key,
// writes it to the store and then caches it. On a store failure the cache is
// left as it was.
func (s *Service) Add(ctx context.Context, e *Entity) (Entity, error) {
	if e == nil {
		return Entity{}, s.fail(ctx, opAdd, "", ErrValidation, errors.New("entity is nil"))
	}
	if !validKey(e.Key) {
		return Entity{}, s.fail(ctx, opAdd, e.Key, ErrValidation, errors.New("key is empty"))
	}

	unlock := s.locks.Lock(e.Key)
	defer unlock()

	// An uncached key may still have a newer timestamp in the store, for
	// example after Clear or when the clock stepped back.
	prev, cached := s.cache.Peek(e.Key)
	if !cached {
		stored, found, err := s.find(ctx, e.Key)
		if err != nil {
			return Entity{}, s.fail(ctx, opAdd, e.Key, ErrStore, err)
		}
		if found {
			prev = stored
		}
	}

	ent := Entity{
		Key:          e.Key,
		Payload:      e.Payload,
		LastAccessed: s.stamp(prev.LastAccessed),
	}

	if err := s.save(ctx, ent); err != nil {
		return Entity{}, s.fail(ctx, opAdd, e.Key, ErrStore, err)
	}
	s.cache.Put(ent.Key, ent)
	s.writeBack.Touch(ent.Key)

	s.logger.InfoContext(ctx, "entity stored", logger.Operation(opAdd), logger.Key(ent.Key))
	return ent, nil
}

// Get returns the entity for key, reading through to the store on a miss.
// Every successful read refreshes LastAccessed in both cache and store,
// unless the entity was refreshed less than the refresh interval ago.
func (s *Service) Get(ctx context.Context, key string) (Entity, error) {
	if !validKey(key) {
		return Entity{}, s.fail(ctx, opGet, key, ErrValidation, errors.New("key is empty"))
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	cached, hit := s.cache.Get(key)
	if hit {
		s.hits.Add(1)
		if s.refresh > 0 && s.now().Sub(cached.LastAccessed) < s.refresh {
			s.logger.DebugContext(ctx, "cache hit", logger.Key(key))
			return cached, nil
		}
		return s.refreshEntity(ctx, cached, "cache hit")
	}

	s.misses.Add(1)

	stored, found, err := s.find(ctx, key)
	if err != nil {
		return Entity{}, s.fail(ctx, opGet, key, ErrStore, err)
	}
	if !found {
		return Entity{}, s.fail(ctx, opGet, key, ErrNotFound, nil)
	}

	return s.refreshEntity(ctx, stored, "cache miss")
}

// Remove deletes key from the store and then from the cache.
func (s *Service) Remove(ctx context.Context, key string) error {
	if !validKey(key) {
		return s.fail(ctx, opRemove, key, ErrValidation, errors.New("key is empty"))
	}

	unlock := s.locks.Lock(key)
	defer unlock()

	exists, err := s.exists(ctx, key)
	if err != nil {
		return s.fail(ctx, opRemove, key, ErrStore, err)
	}
	if !exists {
		return s.fail(ctx, opRemove, key, ErrNotFound, nil)
	}

	if err := s.delete(ctx, key); err != nil {
		return s.fail(ctx, opRemove, key, ErrStore, err)
	}
	s.cache.Remove(key)
	s.writeBack.Touch(key)

	s.logger.InfoContext(ctx, "entity removed", logger.Operation(opRemove), logger.Key(key))
	return nil
}

// RemoveAll empties the store and then the cache. It holds every key lock,
// so no concurrent Add can repopulate the cache with a deleted entity.
func (s *Service) RemoveAll(ctx context.Context) error {
	unlock := s.locks.LockAll()
	defer unlock()

	if err := s.deleteAll(ctx); err != nil {
		return s.fail(ctx, opRemoveAll, "", ErrStore, err)
	}

	n := s.cache.Len()
	s.cache.Clear()

	s.logger.InfoContext(ctx, "all entities removed", logger.Operation(opRemoveAll), logger.Count(n))
	return nil
}

// Clear drops every cached entity. The store is not touched and nothing
// is written back.
func (s *Service) Clear(ctx context.Context) {
	n := s.cache.Len()
	s.cache.Clear()

	s.logger.InfoContext(ctx, "cache cleared", logger.Operation(opClear), logger.Count(n))
}

// Stats returns a snapshot of cache and write-back counters.
func (s *Service) Stats() Stats {
	return Stats{
		Entries:         s.cache.Len(),
		Capacity:        s.cache.Capacity(),
		Hits:            s.hits.Load(),
		Misses:          s.misses.Load(),
		CapacityEvicted: s.capacityEvicted.Load(),
		ExpiredEvicted:  s.expiredEvicted.Load(),
		WriteBack:       s.writeBack.Stats(),
	}
}

// Start launches the write-back workers.
func (s *Service) Start(ctx context.Context) error {
	return s.writeBack.Start(ctx)
}

// Stop halts the expiry sweep and then drains the write-back queue.
func (s *Service) Stop() error {
	s.cache.Close()
	return s.writeBack.Stop()
}

// Run is Start and Stop bound to ctx, for use with errgroup.
func (s *Service) Run(ctx context.Context) func() error {
	return func() error {
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return s.Stop()
	}
}

// Ping checks that the store answers within the store timeout.
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.exists(ctx, "__ping__")
	return err
}

// Must be called with the key lock held.
func (s *Service) refreshEntity(ctx context.Context, e Entity, msg string) (Entity, error) {
	e.LastAccessed = s.stamp(e.LastAccessed)

	if err := s.save(ctx, e); err != nil {
		return Entity{}, s.fail(ctx, opGet, e.Key, ErrStore, err)
	}
	s.cache.Put(e.Key, e)
	s.writeBack.Touch(e.Key)

	s.logger.DebugContext(ctx, msg, logger.Key(e.Key))
	return e, nil
}

// stamp returns the current time at millisecond precision, pushed past prev
// so that timestamps of one key strictly increase even within a millisecond
// or when the stored value came from a clock that ran ahead.
func (s *Service) stamp(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Millisecond)
	if !prev.IsZero() && !now.After(prev) {
		now = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return now
}

func (s *Service) onEvict(key string, e Entity, reason cache.EvictReason) {
	switch reason {
	case cache.ReasonCapacity:
		s.capacityEvicted.Add(1)
	case cache.ReasonExpired:
		s.expiredEvicted.Add(1)
	}
	s.writeBack.Enqueue(key, e, reason)
}

func (s *Service) save(ctx context.Context, e Entity) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.Save(ctx, e)
}

func (s *Service) find(ctx context.Context, key string) (Entity, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.FindByKey(ctx, key)
}

func (s *Service) exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.ExistsByKey(ctx, key)
}

func (s *Service) delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.DeleteByKey(ctx, key)
}

func (s *Service) deleteAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.DeleteAll(ctx)
}

func (s *Service) fail(ctx context.Context, op, key string, kind, cause error) error {
	err := newError(op, key, kind, cause)

	attrs := []any{logger.Operation(op), logger.Error(err)}
	if key != "" {
		attrs = append(attrs, logger.Key(key))
	}
	if errors.Is(kind, ErrStore) {
		s.logger.ErrorContext(ctx, "store operation failed", attrs...)
	} else {
		s.logger.WarnContext(ctx, "request rejected", attrs...)
	}
	return err
}
