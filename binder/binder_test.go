package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/binder"
)

type payload struct {
	Key     string `json:"key"`
	Payload string `json:"payload"`
}

func jsonRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		var p payload
		err := binder.JSON(0)(jsonRequest(`{"key":"a","payload":"b"}`, "application/json; charset=utf-8"), &p)
		require.NoError(t, err)
		assert.Equal(t, payload{Key: "a", Payload: "b"}, p)
	})

	tests := []struct {
		name        string
		body        string
		contentType string
		max         int64
		want        error
	}{
		{"missing content type", `{}`, "", 0, binder.ErrMissingContentType},
		{"wrong content type", `{}`, "text/plain", 0, binder.ErrUnsupportedMediaType},
		{"empty body", ``, "application/json", 0, binder.ErrInvalidJSON},
		{"malformed", `{"key":`, "application/json", 0, binder.ErrInvalidJSON},
		{"unknown field", `{"id":"a"}`, "application/json", 0, binder.ErrInvalidJSON},
		{"wrong type", `{"key":1}`, "application/json", 0, binder.ErrInvalidJSON},
		{"trailing data", `{"key":"a"}{"key":"b"}`, "application/json", 0, binder.ErrInvalidJSON},
		{"too large", `{"key":"` + strings.Repeat("x", 64) + `"}`, "application/json", 16, binder.ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p payload
			err := binder.JSON(tt.max)(jsonRequest(tt.body, tt.contentType), &p)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPath(t *testing.T) {
	t.Parallel()

	type request struct {
		Key     string `path:"key"`
		Version int    `path:"version"`
		Force   bool   `path:"force"`
		Skipped string `path:"-"`
		Plain   string
	}

	params := map[string]string{
		"key":     "user%3A42%2Fprofile",
		"version": "3",
		"force":   "true",
		"Plain":   "ignored",
	}
	extract := func(_ *http.Request, name string) string { return params[name] }

	t.Run("binds tagged fields", func(t *testing.T) {
		t.Parallel()
		var req request
		require.NoError(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &req))
		assert.Equal(t, request{Key: "user:42/profile", Version: 3, Force: true}, req)
	})

	t.Run("invalid int", func(t *testing.T) {
		t.Parallel()
		bad := func(_ *http.Request, name string) string {
			if name == "version" {
				return "three"
			}
			return ""
		}
		var req request
		err := binder.Path(bad)(httptest.NewRequest(http.MethodGet, "/", nil), &req)
		require.ErrorIs(t, err, binder.ErrInvalidPath)
	})

	t.Run("invalid target", func(t *testing.T) {
		t.Parallel()
		var s string
		require.ErrorIs(t, binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &s), binder.ErrInvalidPath)
		require.ErrorIs(t, binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &request{}), binder.ErrInvalidPath)
	})
}
