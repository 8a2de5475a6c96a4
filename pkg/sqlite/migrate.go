package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +goose Up"
	downMarker     = "-- +goose Down"
)

// Migrate runs every *.sql file in dir of fsys that has not been applied yet,
// in lexical order, each in its own transaction.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	if db == nil || fsys == nil {
		return errors.Join(ErrFailedToApplyMigrations, errors.New("db and migrations are required"))
	}
	if dir = strings.TrimSpace(dir); dir == "" {
		dir = "."
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	slices.Sort(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
	name       TEXT PRIMARY KEY,
	applied_at INTEGER NOT NULL
)`); err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	for _, name := range files {
		content, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return errors.Join(ErrFailedToApplyMigrations, err)
		}
		if err := apply(ctx, db, name, UpSection(string(content))); err != nil {
			return errors.Join(ErrFailedToApplyMigrations, fmt.Errorf("%s: %w", name, err))
		}
	}
	return nil
}

// UpSection returns the part of a migration between the Up and Down markers.
// A file without markers is returned unchanged.
func UpSection(content string) string {
	start := strings.Index(content, upMarker)
	if start == -1 {
		return content
	}
	content = content[start+len(upMarker):]
	if end := strings.Index(content, downMarker); end != -1 {
		content = content[:end]
	}
	return content
}

func apply(ctx context.Context, db *sql.DB, name, stmt string) error {
	var applied int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM `+migrationTable+` WHERE name = ?`, name).Scan(&applied)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if strings.TrimSpace(stmt) != "" {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+migrationTable+` (name, applied_at) VALUES (?, ?)`,
		name, time.Now().UTC().UnixMilli(),
	); err != nil {
		return err
	}
	return tx.Commit()
}
