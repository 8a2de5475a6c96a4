package main

import (
	"context"
	"log/slog"
	"slices"

	"github.com/dmitrymomot/cachekeeper/pkg/config"
	"github.com/dmitrymomot/cachekeeper/pkg/httpserver"
	"github.com/dmitrymomot/cachekeeper/pkg/logger"
	pkgmongo "github.com/dmitrymomot/cachekeeper/pkg/mongo"
	"github.com/dmitrymomot/cachekeeper/pkg/pg"
	pkgredis "github.com/dmitrymomot/cachekeeper/pkg/redis"
	pkgsqlite "github.com/dmitrymomot/cachekeeper/pkg/sqlite"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache/store/memory"
	mongostore "github.com/dmitrymomot/cachekeeper/svc/entitycache/store/mongo"
	pgstore "github.com/dmitrymomot/cachekeeper/svc/entitycache/store/postgres"
	redisstore "github.com/dmitrymomot/cachekeeper/svc/entitycache/store/redis"
	s3store "github.com/dmitrymomot/cachekeeper/svc/entitycache/store/s3"
	sqlitestore "github.com/dmitrymomot/cachekeeper/svc/entitycache/store/sqlite"
)

const (
	driverMemory   = "memory"
	driverSQLite   = "sqlite"
	driverPostgres = "postgres"
	driverRedis    = "redis"
	driverMongo    = "mongo"
	driverS3       = "s3"
)

var drivers = []string{driverMemory, driverSQLite, driverPostgres, driverRedis, driverMongo, driverS3}

func validDriver(name string) bool {
	return slices.Contains(drivers, name)
}

// backend is an opened store with its readiness check and cleanup.
type backend struct {
	store entitycache.Store
	check httpserver.Check
	close func() error
}

func nopClose() error { return nil }

func openBackend(ctx context.Context, driver string, log *slog.Logger) (backend, error) {
	log = logger.OrDiscard(log).With(logger.Driver(driver))

	switch driver {
	case driverMemory:
		log.Warn("memory store selected, entities are lost on restart")
		return backend{store: memory.New(), close: nopClose}, nil

	case driverSQLite:
		var cfg pkgsqlite.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		st, err := sqlitestore.Open(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		log.Info("sqlite store opened", slog.String("path", cfg.Path))
		return backend{store: st, check: pkgsqlite.Healthcheck(st.DB()), close: st.Close}, nil

	case driverPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
			pool.Close()
			return backend{}, err
		}
		log.Info("postgres store connected")
		return backend{
			store: pgstore.New(pool),
			check: pg.Healthcheck(pool),
			close: func() error { pool.Close(); return nil },
		}, nil

	case driverRedis:
		var cfg pkgredis.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		client, err := pkgredis.Connect(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		log.Info("redis store connected", slog.String("prefix", cfg.KeyPrefix))
		return backend{
			store: redisstore.New(client, cfg),
			check: pkgredis.Healthcheck(client),
			close: client.Close,
		}, nil

	case driverMongo:
		var cfg pkgmongo.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		client, err := pkgmongo.Connect(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		log.Info("mongo store connected", slog.String("database", cfg.Database))
		return backend{
			store: mongostore.New(client.Database(cfg.Database), mongostore.DefaultCollection),
			check: pkgmongo.Healthcheck(client),
			close: func() error { return client.Disconnect(context.Background()) },
		}, nil

	case driverS3:
		var cfg s3store.Config
		if err := config.Load(&cfg); err != nil {
			return backend{}, err
		}
		st, err := s3store.New(ctx, cfg)
		if err != nil {
			return backend{}, err
		}
		log.Info("s3 store configured", slog.String("bucket", cfg.Bucket), slog.String("prefix", cfg.Prefix))
		return backend{store: st, close: nopClose}, nil
	}

	return backend{}, ErrUnknownDriver
}
