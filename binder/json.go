package binder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize caps JSON request bodies.
const DefaultMaxJSONSize int64 = 1 << 20

// JSON decodes an application/json body into v. Unknown fields, trailing
// data and bodies over maxBytes are rejected. maxBytes <= 0 means DefaultMaxJSONSize.
//
//	r.Post("/api/caching", handler.Wrap(add,
//		handler.WithBinders[handler.Context, addRequest](binder.JSON(0)),
//	))
func JSON(maxBytes int64) func(r *http.Request, v any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxJSONSize
	}

	return func(r *http.Request, v any) error {
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %q, expected application/json", ErrUnsupportedMediaType, contentType)
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
		if err != nil {
			return fmt.Errorf("%w: read body: %v", ErrInvalidJSON, err)
		}
		if int64(len(body)) > maxBytes {
			return fmt.Errorf("%w: max %d bytes", ErrBodyTooLarge, maxBytes)
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()

		if err := dec.Decode(v); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: empty body", ErrInvalidJSON)
			}
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		if dec.More() {
			return fmt.Errorf("%w: unexpected data after JSON value", ErrInvalidJSON)
		}
		return nil
	}
}
