// Package storetest holds the behavior every entitycache.Store backend must
// share. Backend packages call Run from their own tests with a factory that
// returns an empty store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

// Store is the contract under test.
type Store = entitycache.Store

// Factory returns an empty store. It is called once per sub-test.
type Factory func(t *testing.T) Store

func entity(key, payload string, at time.Time) entitycache.Entity {
	return entitycache.Entity{Key: key, Payload: payload, LastAccessed: at.UTC().Truncate(time.Millisecond)}
}

// Run executes the shared store checks.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	base := time.Date(2024, 5, 1, 10, 30, 0, 123_000_000, time.UTC)

	t.Run("save and find", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		want := entity("alpha", `{"n":1}`, base)
		require.NoError(t, s.Save(ctx, want))

		got, found, err := s.FindByKey(ctx, "alpha")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want.Key, got.Key)
		assert.Equal(t, want.Payload, got.Payload)
		assert.True(t, want.LastAccessed.Equal(got.LastAccessed), "want %s, got %s", want.LastAccessed, got.LastAccessed)
	})

	t.Run("find absent", func(t *testing.T) {
		s := newStore(t)

		got, found, err := s.FindByKey(context.Background(), "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, entitycache.Entity{}, got)
	})

	t.Run("save overwrites", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Save(ctx, entity("k", "old", base)))
		require.NoError(t, s.Save(ctx, entity("k", "new", base.Add(time.Second))))

		got, found, err := s.FindByKey(ctx, "k")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "new", got.Payload)
		assert.True(t, base.Add(time.Second).Equal(got.LastAccessed))
	})

	t.Run("exists", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		ok, err := s.ExistsByKey(ctx, "k")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Save(ctx, entity("k", "v", base)))

		ok, err = s.ExistsByKey(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete by key", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Save(ctx, entity("a", "1", base)))
		require.NoError(t, s.Save(ctx, entity("b", "2", base)))

		require.NoError(t, s.DeleteByKey(ctx, "a"))
		require.NoError(t, s.DeleteByKey(ctx, "a"), "deleting an absent key is not an error")

		ok, err := s.ExistsByKey(ctx, "a")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.ExistsByKey(ctx, "b")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete all", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for _, k := range []string{"a", "b", "c"} {
			require.NoError(t, s.Save(ctx, entity(k, k, base)))
		}

		require.NoError(t, s.DeleteAll(ctx))
		require.NoError(t, s.DeleteAll(ctx))

		for _, k := range []string{"a", "b", "c"} {
			ok, err := s.ExistsByKey(ctx, k)
			require.NoError(t, err)
			assert.False(t, ok, k)
		}
	})

	t.Run("unusual keys and payloads", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		keys := []string{"user:42", "a/b/c", "with space", "ünïcødé", "x.y-z_1"}
		for _, k := range keys {
			require.NoError(t, s.Save(ctx, entity(k, "payload with\nnewline and \"quotes\"", base)))
		}
		for _, k := range keys {
			got, found, err := s.FindByKey(ctx, k)
			require.NoError(t, err, k)
			require.True(t, found, k)
			assert.Equal(t, k, got.Key)
			assert.Equal(t, "payload with\nnewline and \"quotes\"", got.Payload)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Save(ctx, entity("empty", "", base)))

		got, found, err := s.FindByKey(ctx, "empty")
		require.NoError(t, err)
		require.True(t, found)
		assert.Empty(t, got.Payload)
	})
}
