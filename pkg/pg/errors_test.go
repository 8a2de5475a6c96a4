package pg_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/cachekeeper/pkg/pg"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsNotFoundError(nil))
	assert.True(t, pg.IsNotFoundError(pgx.ErrNoRows))
	assert.True(t, pg.IsNotFoundError(fmt.Errorf("find: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(errors.New("other")))
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()

	assert.False(t, pg.IsConnectionError(nil))
	assert.True(t, pg.IsConnectionError(&pgconn.PgError{Code: "08006"}))
	assert.False(t, pg.IsConnectionError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsConnectionError(errors.New("syntax")))
}
