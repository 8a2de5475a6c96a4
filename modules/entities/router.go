package entities

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/cachekeeper/pkg/requestid"
)

type Mountable interface {
	Handle() http.Handler
	HandleStats() http.Handler
}

// RouterOptions configures the application router. Nil fields are not mounted.
type RouterOptions struct {
	Entities Mountable

	// Auth guards everything under /api.
	Auth func(http.Handler) http.Handler

	Liveness  http.Handler
	Readiness http.Handler
}

// Router assigns a request id to every request, serves the probes
// unauthenticated and mounts the API under /api.
//
//	r := entities.Router(entities.RouterOptions{
//		Entities:  entities.NewService(svc),
//		Auth:      basicauth.Middleware(verifier),
//		Liveness:  httpserver.LivenessHandler(),
//		Readiness: httpserver.ReadinessHandler(log, 2*time.Second, svc.Ping),
//	})
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)

	if opts.Liveness != nil {
		r.Method(http.MethodGet, "/healthz", opts.Liveness)
	}
	if opts.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", opts.Readiness)
	}

	r.Route("/api", func(api chi.Router) {
		if opts.Auth != nil {
			api.Use(opts.Auth)
		}
		if opts.Entities != nil {
			api.Mount("/caching", opts.Entities.Handle())
			api.Method(http.MethodGet, "/stats", opts.Entities.HandleStats())
		}
	})

	return r
}
