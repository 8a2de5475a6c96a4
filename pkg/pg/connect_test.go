package pg_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/pkg/pg"
)

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty connection string", func(t *testing.T) {
		t.Parallel()
		_, err := pg.Connect(context.Background(), pg.Config{})
		require.ErrorIs(t, err, pg.ErrEmptyConnectionString)
	})

	t.Run("unparsable connection string", func(t *testing.T) {
		t.Parallel()
		_, err := pg.Connect(context.Background(), pg.Config{ConnectionString: "postgres://%zz"})
		require.Error(t, err)
		assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
	})
}

func TestMigrate_NilFS(t *testing.T) {
	t.Parallel()

	err := pg.Migrate(context.Background(), nil, nil, "migrations", pg.Config{}, nil)
	require.ErrorIs(t, err, pg.ErrMigrationsNotProvided)
}
