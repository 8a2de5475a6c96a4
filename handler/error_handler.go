package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/cachekeeper/binder"
	"github.com/dmitrymomot/cachekeeper/pkg/logger"
	"github.com/dmitrymomot/cachekeeper/pkg/requestid"
)

// Classifier maps an error to an HTTPError. It reports false when it does
// not recognise err.
type Classifier func(err error) (HTTPError, bool)

// Classify resolves err through classifiers, then HTTPError values and
// binder errors. Anything else is ErrInternal, without the cause's text.
func Classify(err error, classifiers ...Classifier) HTTPError {
	for _, c := range classifiers {
		if httpErr, ok := c(err); ok {
			return httpErr
		}
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return HTTPError{Status: http.StatusUnsupportedMediaType, Code: "unsupported_media_type", Message: err.Error()}
	case errors.Is(err, binder.ErrBodyTooLarge):
		return HTTPError{Status: http.StatusRequestEntityTooLarge, Code: "body_too_large", Message: err.Error()}
	case errors.Is(err, binder.ErrInvalidJSON), errors.Is(err, binder.ErrInvalidPath):
		return ErrBadRequest.WithMessage(err.Error())
	}
	return ErrInternal
}

// NewErrorHandler logs err and renders it as a JSON error envelope carrying
// the request id. Client errors log at warn, server errors at error.
func NewErrorHandler(log *slog.Logger, classifiers ...Classifier) ErrorHandler[Context] {
	log = logger.OrDiscard(log).With(logger.Component("http"))

	return func(ctx Context, err error) {
		r := ctx.Request()
		httpErr := Classify(err, classifiers...)
		rid := requestid.FromContext(r.Context())

		level := slog.LevelWarn
		if httpErr.Status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(r.Context(), level, "request failed",
			logger.Error(err),
			slog.Int("status", httpErr.Status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		var opts []JSONOption
		if rid != "" {
			opts = append(opts, WithJSONMeta(map[string]any{"request_id": rid}))
		}
		if renderErr := JSONError(httpErr, opts...).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.ErrorContext(r.Context(), "failed to render error", logger.Error(renderErr))
		}
	}
}
