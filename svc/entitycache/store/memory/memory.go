// Package memory is a process-local entitycache.Store for development and tests.
// Nothing survives a restart.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

// Store keeps entities in a map guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	rows map[string]entitycache.Entity
}

func New() *Store {
	return &Store{rows: make(map[string]entitycache.Entity)}
}

func (s *Store) Save(ctx context.Context, e entitycache.Entity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[e.Key] = e
	return nil
}

func (s *Store) FindByKey(ctx context.Context, key string) (entitycache.Entity, bool, error) {
	if err := ctx.Err(); err != nil {
		return entitycache.Entity{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rows[key]
	return e, ok, nil
}

func (s *Store) DeleteByKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, key)
	return nil
}

func (s *Store) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.rows)
	return nil
}

func (s *Store) ExistsByKey(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[key]
	return ok, nil
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Keys returns the stored keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.rows))
}
