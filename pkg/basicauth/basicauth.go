// Package basicauth guards HTTP handlers with RFC 7617 basic authentication
// against a single bcrypt-hashed credential.
package basicauth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyUsername     = errors.New("basicauth: username is required")
	ErrInvalidHash       = errors.New("basicauth: password hash is not a bcrypt hash")
	ErrPasswordTooLong   = errors.New("basicauth: password exceeds 72 bytes")
	ErrEmptyPassword     = errors.New("basicauth: password is required")
	ErrInvalidCredential = errors.New("basicauth: invalid credentials")
)

// Config is read from the environment. PasswordHash is a bcrypt hash,
// see HashPassword.
type Config struct {
	Username     string `env:"API_USERNAME"`
	PasswordHash string `env:"API_PASSWORD_HASH"`
	Realm        string `env:"API_REALM" envDefault:"cachekeeper"`
}

// Enabled reports whether credentials are configured.
func (c Config) Enabled() bool {
	return c.Username != "" || c.PasswordHash != ""
}

// Validate checks that both fields are set and the hash parses.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Username == "" {
		return ErrEmptyUsername
	}
	if _, err := bcrypt.Cost([]byte(c.PasswordHash)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	return nil
}

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	return string(hash), err
}

// Verifier checks one username and password pair.
type Verifier struct {
	username []byte
	hash     []byte
}

// NewVerifier validates cfg and returns a verifier for it.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Username == "" {
		return nil, ErrEmptyUsername
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Verifier{username: []byte(cfg.Username), hash: []byte(cfg.PasswordHash)}, nil
}

// Verify returns ErrInvalidCredential unless both parts match. The bcrypt
// comparison always runs so a wrong username takes as long as a wrong password.
func (v *Verifier) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), v.username) == 1
	passErr := bcrypt.CompareHashAndPassword(v.hash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredential
	}
	return nil
}

// Option configures Middleware.
type Option func(*middleware)

type middleware struct {
	realm        string
	unauthorized http.Handler
}

// WithRealm sets the realm announced in WWW-Authenticate.
func WithRealm(realm string) Option {
	return func(m *middleware) {
		if realm != "" {
			m.realm = realm
		}
	}
}

// WithUnauthorizedHandler writes the 401 body. The status code and
// WWW-Authenticate header are set before it runs.
func WithUnauthorizedHandler(h http.Handler) Option {
	return func(m *middleware) {
		if h != nil {
			m.unauthorized = h
		}
	}
}

// Middleware rejects requests without valid credentials with 401.
func Middleware(v *Verifier, opts ...Option) func(http.Handler) http.Handler {
	m := &middleware{
		realm: "restricted",
		unauthorized: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		}),
	}
	for _, opt := range opts {
		opt(m)
	}
	challenge := fmt.Sprintf(`Basic realm=%q, charset="UTF-8"`, strings.ReplaceAll(m.realm, `"`, ""))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || v.Verify(user, pass) != nil {
				w.Header().Set("WWW-Authenticate", challenge)
				sw := &statusWriter{ResponseWriter: w}
				m.unauthorized.ServeHTTP(sw, r)
				sw.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusWriter forces 401 whatever status the unauthorized handler writes.
type statusWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *statusWriter) WriteHeader(int) {
	if !w.wrote {
		w.wrote = true
		w.ResponseWriter.WriteHeader(http.StatusUnauthorized)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusUnauthorized)
	return w.ResponseWriter.Write(b)
}
