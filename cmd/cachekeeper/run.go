package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/cachekeeper/handler"
	"github.com/dmitrymomot/cachekeeper/modules/entities"
	"github.com/dmitrymomot/cachekeeper/pkg/basicauth"
	"github.com/dmitrymomot/cachekeeper/pkg/config"
	"github.com/dmitrymomot/cachekeeper/pkg/environment"
	"github.com/dmitrymomot/cachekeeper/pkg/httpserver"
	"github.com/dmitrymomot/cachekeeper/pkg/logger"
	"github.com/dmitrymomot/cachekeeper/pkg/requestid"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

var ErrUnknownDriver = errors.New("unknown STORE_DRIVER")

// Config is the process level configuration.
type Config struct {
	AppName      string        `env:"APP_NAME" envDefault:"cachekeeper"`
	AppEnv       string        `env:"APP_ENV" envDefault:"development"`
	StoreDriver  string        `env:"STORE_DRIVER" envDefault:"memory"`
	ReadyTimeout time.Duration `env:"HTTP_READY_TIMEOUT" envDefault:"2s"`
	MaxBodySize  int64         `env:"HTTP_MAX_BODY_SIZE" envDefault:"1048576"`
}

func (c Config) Validate() error {
	if !validDriver(c.StoreDriver) {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.StoreDriver)
	}
	return nil
}

func run(ctx context.Context) error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	var logCfg logger.Config
	if err := config.Load(&logCfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(environment.Parse(cfg.AppEnv), cfg.AppName),
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	be, err := openBackend(ctx, cfg.StoreDriver, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			log.Error("failed to close store", logger.Driver(cfg.StoreDriver), logger.Error(err))
		}
	}()

	var cacheCfg entitycache.Config
	if err := config.Load(&cacheCfg); err != nil {
		return err
	}
	svc, err := entitycache.New(be.store, cacheCfg, entitycache.WithLogger(log))
	if err != nil {
		return err
	}

	auth, err := authMiddleware(log)
	if err != nil {
		return err
	}

	var httpCfg httpserver.Config
	if err := config.Load(&httpCfg); err != nil {
		return err
	}
	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))

	checks := []httpserver.Check{svc.Ping}
	if be.check != nil {
		checks = append(checks, be.check)
	}
	router := entities.Router(entities.RouterOptions{
		Entities: entities.NewService(svc,
			entities.WithMaxBodySize(cfg.MaxBodySize),
			entities.WithErrorHandler(handler.NewErrorHandler(log, entities.ClassifyError)),
		),
		Auth:      auth,
		Liveness:  httpserver.LivenessHandler(),
		Readiness: httpserver.ReadinessHandler(log, cfg.ReadyTimeout, checks...),
	})

	log.Info("starting cachekeeper",
		logger.Driver(cfg.StoreDriver),
		slog.Int("max_entries", cacheCfg.MaxEntries),
		slog.Duration("ttl", cacheCfg.TTL),
	)

	g, gctx := errgroup.WithContext(ctx)
	serverDone := make(chan struct{})

	g.Go(func() error {
		defer close(serverDone)
		return srv.Run(gctx, router)
	})
	// The write-back queue drains after the server stopped taking requests.
	g.Go(func() error {
		if err := svc.Start(gctx); err != nil {
			return err
		}
		<-serverDone
		return svc.Stop()
	})

	return g.Wait()
}

// authMiddleware returns nil when no credentials are configured.
func authMiddleware(log *slog.Logger) (func(http.Handler) http.Handler, error) {
	var cfg basicauth.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if !cfg.Enabled() {
		log.Warn("API_USERNAME is not set, /api is served without authentication")
		return nil, nil
	}

	v, err := basicauth.NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	return basicauth.Middleware(v, basicauth.WithRealm(cfg.Realm)), nil
}
