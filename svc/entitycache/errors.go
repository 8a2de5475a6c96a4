package entitycache

import (
	"errors"
	"strconv"
	"strings"
)

// Error kinds. Every error returned by Service matches exactly one of them
// with errors.Is.
var (
	ErrValidation = errors.New("invalid input")
	ErrNotFound   = errors.New("entity not found")
	ErrStore      = errors.New("store failure")
)

// Error carries the failed operation and key alongside the error kind and
// the underlying cause.
type Error struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("entitycache: ")
	b.WriteString(e.Op)
	if e.Key != "" {
		b.WriteString(" ")
		b.WriteString(strconv.Quote(e.Key))
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newError(op, key string, kind, cause error) *Error {
	return &Error{Op: op, Key: key, Kind: kind, Err: cause}
}
