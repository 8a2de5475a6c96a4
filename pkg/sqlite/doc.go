// Package sqlite opens embedded SQLite databases through the pure-Go
// modernc.org/sqlite driver and applies embedded SQL migrations.
//
// Migration files use goose annotations so the same file layout works for
// the PostgreSQL store. Only the Up section is executed, each file at most
// once, recorded in the schema_migrations table:
//
//	db, err := sqlite.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := sqlite.Migrate(ctx, db, migrations, "migrations"); err != nil {
//		return err
//	}
package sqlite
