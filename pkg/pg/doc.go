// Package pg wires a pgx/v5 connection pool for the PostgreSQL store.
//
// Config is read from PG_* environment variables. Connect opens the pool and
// retries until the database answers or ctx is done. Migrate runs goose
// migrations from an embedded filesystem over the same pool, and Healthcheck
// returns a probe suitable for a readiness endpoint.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations, "migrations", cfg, log); err != nil {
//		return err
//	}
package pg
