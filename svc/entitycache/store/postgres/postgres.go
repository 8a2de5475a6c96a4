// Package postgres implements entitycache.Store on top of a pgx connection pool.
package postgres

import (
	"context"
	"embed"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/cachekeeper/pkg/pg"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	upsertSQL = `INSERT INTO cache_entities (key, payload, last_accessed)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, last_accessed = EXCLUDED.last_accessed`
	selectSQL    = `SELECT key, payload, last_accessed FROM cache_entities WHERE key = $1`
	existsSQL    = `SELECT EXISTS (SELECT 1 FROM cache_entities WHERE key = $1)`
	deleteSQL    = `DELETE FROM cache_entities WHERE key = $1`
	deleteAllSQL = `DELETE FROM cache_entities`
)

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists entities in the cache_entities table.
type Store struct {
	db DB
}

// New returns a store over db. The schema must already exist, see Migrate.
func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate creates or upgrades the cache_entities table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log *slog.Logger) error {
	return pg.Migrate(ctx, pool, migrations, "migrations", cfg, log)
}

func (s *Store) Save(ctx context.Context, e entitycache.Entity) error {
	_, err := s.db.Exec(ctx, upsertSQL, e.Key, e.Payload, e.LastAccessed.UTC())
	return err
}

func (s *Store) FindByKey(ctx context.Context, key string) (entitycache.Entity, bool, error) {
	var (
		e  entitycache.Entity
		at time.Time
	)
	err := s.db.QueryRow(ctx, selectSQL, key).Scan(&e.Key, &e.Payload, &at)
	if pg.IsNotFoundError(err) {
		return entitycache.Entity{}, false, nil
	}
	if err != nil {
		return entitycache.Entity{}, false, err
	}
	e.LastAccessed = at.UTC()
	return e, true, nil
}

func (s *Store) DeleteByKey(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, deleteSQL, key)
	return err
}

func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.db.Exec(ctx, deleteAllSQL)
	return err
}

func (s *Store) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, existsSQL, key).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
