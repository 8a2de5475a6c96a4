package entities

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/cachekeeper/binder"
	"github.com/dmitrymomot/cachekeeper/handler"
	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

// Cache is the part of entitycache.Service the HTTP API uses.
type Cache interface {
	Add(ctx context.Context, e *entitycache.Entity) (entitycache.Entity, error)
	Get(ctx context.Context, key string) (entitycache.Entity, error)
	Remove(ctx context.Context, key string) error
	RemoveAll(ctx context.Context) error
	Clear(ctx context.Context)
	Stats() entitycache.Stats
}

type Service struct {
	cache        Cache
	maxBodySize  int64
	errorHandler handler.ErrorHandler[handler.Context]
}

type Option func(*Service)

// WithMaxBodySize limits the JSON body of add requests.
func WithMaxBodySize(n int64) Option {
	return func(s *Service) { s.maxBodySize = n }
}

func WithErrorHandler(h handler.ErrorHandler[handler.Context]) Option {
	return func(s *Service) {
		if h != nil {
			s.errorHandler = h
		}
	}
}

// NewService exposes cache over HTTP. Without WithErrorHandler errors are
// rendered by handler.NewErrorHandler with ClassifyError and no logger.
func NewService(cache Cache, opts ...Option) *Service {
	s := &Service{
		cache:        cache,
		maxBodySize:  binder.DefaultMaxJSONSize,
		errorHandler: handler.NewErrorHandler(nil, ClassifyError),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle returns the entity routes, meant to be mounted at /api/caching.
// Every path segment below the mount point is a key.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/", handler.Wrap(s.add,
		handler.WithBinders[handler.Context, AddRequest](binder.JSON(s.maxBodySize)),
		handler.WithErrorHandler[handler.Context, AddRequest](s.errorHandler),
	))
	r.Delete("/", handler.Wrap(s.removeAll,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Post("/clear", handler.Wrap(s.clear,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Get("/{key}", handler.Wrap(s.get,
		handler.WithBinders[handler.Context, KeyRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, KeyRequest](s.errorHandler),
	))
	r.Delete("/{key}", handler.Wrap(s.remove,
		handler.WithBinders[handler.Context, KeyRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[handler.Context, KeyRequest](s.errorHandler),
	))

	return r
}

// HandleStats returns the counters route, mounted outside /api/caching so
// that no key is shadowed.
func (s *Service) HandleStats() http.Handler {
	return handler.Wrap(s.stats,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	)
}

// AddRequest is the body of POST /api/caching.
type AddRequest struct {
	Key     string `json:"key"`
	Payload string `json:"payload"`
}

type KeyRequest struct {
	Key string `path:"key"`
}

func (s *Service) add(ctx handler.Context, req AddRequest) handler.Response {
	e, err := s.cache.Add(ctx, &entitycache.Entity{Key: req.Key, Payload: req.Payload})
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(e)
}

func (s *Service) get(ctx handler.Context, req KeyRequest) handler.Response {
	e, err := s.cache.Get(ctx, req.Key)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(e)
}

func (s *Service) remove(ctx handler.Context, req KeyRequest) handler.Response {
	if err := s.cache.Remove(ctx, req.Key); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

func (s *Service) removeAll(ctx handler.Context, _ struct{}) handler.Response {
	if err := s.cache.RemoveAll(ctx); err != nil {
		return handler.Error(err)
	}
	return handler.Empty()
}

func (s *Service) clear(ctx handler.Context, _ struct{}) handler.Response {
	s.cache.Clear(ctx)
	return handler.Empty()
}

func (s *Service) stats(_ handler.Context, _ struct{}) handler.Response {
	return handler.JSON(s.cache.Stats())
}

// ClassifyError maps entitycache error kinds to HTTP errors. Store failures
// are reported without their cause.
func ClassifyError(err error) (handler.HTTPError, bool) {
	switch {
	case errors.Is(err, entitycache.ErrValidation):
		return handler.HTTPError{Status: http.StatusBadRequest, Code: "validation_failed", Message: validationMessage(err)}, true
	case errors.Is(err, entitycache.ErrNotFound):
		return handler.ErrNotFound.WithMessage(entitycache.ErrNotFound.Error()), true
	case errors.Is(err, entitycache.ErrStore):
		return handler.ErrServiceUnavailable.WithMessage("store unavailable"), true
	}
	return handler.HTTPError{}, false
}

func validationMessage(err error) string {
	var ce *entitycache.Error
	if errors.As(err, &ce) && ce.Err != nil {
		return ce.Err.Error()
	}
	return entitycache.ErrValidation.Error()
}
