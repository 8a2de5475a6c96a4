// Package sqlite implements entitycache.Store on an embedded SQLite database.
// Timestamps are stored as Unix milliseconds.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/dmitrymomot/cachekeeper/pkg/sqlite"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists entities in the cache_entities table.
type Store struct {
	db *sql.DB
}

// Open opens the database described by cfg and migrates it.
func Open(ctx context.Context, cfg sqlite.Config) (*Store, error) {
	db, err := sqlite.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New migrates db and returns a store over it. The caller keeps ownership of db.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := sqlite.Migrate(ctx, db, migrations, "migrations"); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, e entitycache.Entity) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO cache_entities (key, payload, last_accessed)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET payload = excluded.payload, last_accessed = excluded.last_accessed`,
		e.Key, e.Payload, toMillis(e.LastAccessed),
	)
	return err
}

func (s *Store) FindByKey(ctx context.Context, key string) (entitycache.Entity, bool, error) {
	var (
		e  entitycache.Entity
		ms int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, payload, last_accessed FROM cache_entities WHERE key = ?`, key,
	).Scan(&e.Key, &e.Payload, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return entitycache.Entity{}, false, nil
	}
	if err != nil {
		return entitycache.Entity{}, false, err
	}
	e.LastAccessed = fromMillis(ms)
	return e, true, nil
}

func (s *Store) DeleteByKey(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entities WHERE key = ?`, key)
	return err
}

func (s *Store) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entities`)
	return err
}

func (s *Store) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM cache_entities WHERE key = ?)`, key,
	).Scan(&exists)
	return exists, err
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
