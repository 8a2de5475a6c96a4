package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgsqlite "github.com/dmitrymomot/cachekeeper/pkg/sqlite"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/store/sqlite"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/storetest"
)

func open(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), pkgsqlite.Config{Path: path, BusyTimeout: 5 * time.Second, MaxOpenConns: 1})
	require.NoError(t, err)
	return s
}

func TestStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) storetest.Store {
		s := open(t, filepath.Join(t.TempDir(), "cache.db"))
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.db")
	at := time.Date(2024, 5, 1, 10, 0, 0, 987_000_000, time.UTC)
	ctx := context.Background()

	s := open(t, path)
	require.NoError(t, s.Save(ctx, entitycache.Entity{Key: "k", Payload: "v", LastAccessed: at}))
	require.NoError(t, s.Close())

	s = open(t, path)
	defer s.Close()

	got, found, err := s.FindByKey(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", got.Payload)
	assert.True(t, at.Equal(got.LastAccessed))
	require.NoError(t, pkgsqlite.Healthcheck(s.DB())(ctx))
}

func TestStore_CancelledContext(t *testing.T) {
	t.Parallel()

	s := open(t, ":memory:")
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.FindByKey(ctx, "k")
	require.Error(t, err)
}
