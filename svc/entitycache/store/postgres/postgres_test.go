package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/pkg/pg"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/store/postgres"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/storetest"
)

func TestStore(t *testing.T) {
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     4,
		RetryAttempts:    1,
		MigrationsTable:  "cachekeeper_migrations_test",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool, cfg, nil))
	// Second run is a no-op.
	require.NoError(t, postgres.Migrate(ctx, pool, cfg, nil))
	require.NoError(t, pg.Healthcheck(pool)(ctx))

	storetest.Run(t, func(t *testing.T) storetest.Store {
		s := postgres.New(pool)
		require.NoError(t, s.DeleteAll(context.Background()))
		return s
	})
}
