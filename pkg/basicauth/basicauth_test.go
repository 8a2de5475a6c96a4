package basicauth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/cachekeeper/pkg/basicauth"
)

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestHashPassword(t *testing.T) {
	t.Parallel()

	h, err := basicauth.HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("s3cret")))

	_, err = basicauth.HashPassword("")
	require.ErrorIs(t, err, basicauth.ErrEmptyPassword)

	_, err = basicauth.HashPassword(strings.Repeat("x", 73))
	require.ErrorIs(t, err, basicauth.ErrPasswordTooLong)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, basicauth.Config{}.Validate())
	assert.False(t, basicauth.Config{}.Enabled())
	assert.ErrorIs(t, basicauth.Config{PasswordHash: hash(t, "x")}.Validate(), basicauth.ErrEmptyUsername)
	assert.ErrorIs(t, basicauth.Config{Username: "u", PasswordHash: "plain"}.Validate(), basicauth.ErrInvalidHash)
	assert.NoError(t, basicauth.Config{Username: "u", PasswordHash: hash(t, "x")}.Validate())
}

func TestVerifier(t *testing.T) {
	t.Parallel()

	_, err := basicauth.NewVerifier(basicauth.Config{})
	require.ErrorIs(t, err, basicauth.ErrEmptyUsername)

	v, err := basicauth.NewVerifier(basicauth.Config{Username: "api", PasswordHash: hash(t, "pw")})
	require.NoError(t, err)

	assert.NoError(t, v.Verify("api", "pw"))
	assert.ErrorIs(t, v.Verify("api", "wrong"), basicauth.ErrInvalidCredential)
	assert.ErrorIs(t, v.Verify("other", "pw"), basicauth.ErrInvalidCredential)
	assert.ErrorIs(t, v.Verify("", ""), basicauth.ErrInvalidCredential)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	v, err := basicauth.NewVerifier(basicauth.Config{Username: "api", PasswordHash: hash(t, "pw")})
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("inside"))
	})

	tests := []struct {
		name     string
		user     string
		pass     string
		setAuth  bool
		wantCode int
	}{
		{"valid", "api", "pw", true, http.StatusOK},
		{"wrong password", "api", "nope", true, http.StatusUnauthorized},
		{"wrong user", "root", "pw", true, http.StatusUnauthorized},
		{"missing header", "", "", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/api", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			basicauth.Middleware(v, basicauth.WithRealm("cache"))(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="cache", charset="UTF-8"`, rec.Header().Get("WWW-Authenticate"))
				assert.NotContains(t, rec.Body.String(), "inside")
			} else {
				assert.Equal(t, "inside", rec.Body.String())
			}
		})
	}

	t.Run("custom unauthorized body keeps 401", func(t *testing.T) {
		t.Parallel()
		custom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		})
		rec := httptest.NewRecorder()
		basicauth.Middleware(v, basicauth.WithUnauthorizedHandler(custom))(next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	})
}
