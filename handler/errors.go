package handler

import (
	"errors"
	"net/http"
)

var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error with an HTTP status and a machine-readable code.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

var (
	ErrBadRequest         = HTTPError{Status: http.StatusBadRequest, Code: "bad_request"}
	ErrUnauthorized       = HTTPError{Status: http.StatusUnauthorized, Code: "unauthorized"}
	ErrNotFound           = HTTPError{Status: http.StatusNotFound, Code: "not_found"}
	ErrServiceUnavailable = HTTPError{Status: http.StatusServiceUnavailable, Code: "service_unavailable"}
	ErrInternal           = HTTPError{Status: http.StatusInternalServerError, Code: "internal_error"}
)

// WithMessage returns a copy of e with a client-facing message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

type errorResponse struct {
	err error
}

func (e errorResponse) Render(http.ResponseWriter, *http.Request) error {
	return e.err
}

// Error is a Response that renders nothing and hands err to the ErrorHandler.
func Error(err error) Response {
	if err == nil {
		err = ErrInternal
	}
	return errorResponse{err: err}
}
