package entitycache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/store/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingStore remembers every successful Save in order.
type recordingStore struct {
	*memory.Store

	mu    sync.Mutex
	saves []entitycache.Entity
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Store: memory.New()}
}

func (r *recordingStore) Save(ctx context.Context, e entitycache.Entity) error {
	if err := r.Store.Save(ctx, e); err != nil {
		return err
	}
	r.mu.Lock()
	r.saves = append(r.saves, e)
	r.mu.Unlock()
	return nil
}

func (r *recordingStore) Saves() []entitycache.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entitycache.Entity(nil), r.saves...)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, e entitycache.Entity) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockStore) FindByKey(ctx context.Context, key string) (entitycache.Entity, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(entitycache.Entity), args.Bool(1), args.Error(2)
}

func (m *mockStore) DeleteByKey(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockStore) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func testConfig(maxEntries int) entitycache.Config {
	cfg := entitycache.DefaultConfig()
	cfg.MaxEntries = maxEntries
	cfg.SweepInterval = 0
	cfg.WriteBackWorkers = 1
	return cfg
}

func newService(t *testing.T, store entitycache.Store, cfg entitycache.Config, opts ...entitycache.Option) *entitycache.Service {
	t.Helper()
	s, err := entitycache.New(store, cfg, opts...)
	require.NoError(t, err)
	return s
}

// startService also starts the write-back workers and drains them on cleanup.
func startService(t *testing.T, store entitycache.Store, cfg entitycache.Config, opts ...entitycache.Option) *entitycache.Service {
	t.Helper()
	s := newService(t, store, cfg, opts...)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })
	return s
}
