package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekeeper/pkg/httpserver"
)

func start(t *testing.T, srv *httpserver.Server, h http.Handler) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, h) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("server exited early: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return cancel, done
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithShutdownTimeout(time.Second))
	cancel, done := start(t, srv, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	resp, err := http.Get("http://" + srv.Addr().String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return")
	}

	err = srv.Run(context.Background(), nil)
	require.ErrorIs(t, err, httpserver.ErrRunning)
}

func TestRun_WaitsForInflightRequests(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithShutdownTimeout(2*time.Second))
	cancel, done := start(t, srv, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte("slow"))
	}))

	respCh := make(chan string, 1)
	go func() {
		resp, err := http.Get("http://" + srv.Addr().String())
		if err != nil {
			respCh <- err.Error()
			return
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		respCh <- string(b)
	}()

	<-entered
	cancel()

	assert.Equal(t, "slow", <-respCh)
	require.NoError(t, <-done)
}

func TestRun_StartError(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr(":invalid"))
	err := srv.Run(context.Background(), http.NotFoundHandler())
	require.ErrorIs(t, err, httpserver.ErrStart)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	srv := httpserver.NewFromConfig(httpserver.Config{Addr: "127.0.0.1:0", ShutdownTimeout: time.Second})
	cancel, done := start(t, srv, http.NotFoundHandler())
	assert.NotNil(t, srv.Addr())
	cancel()
	require.NoError(t, <-done)
}

func TestOptions_PanicOnInvalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { httpserver.WithAddr("") })
	assert.Panics(t, func() { httpserver.WithReadTimeout(0) })
	assert.Panics(t, func() { httpserver.WithReadHeaderTimeout(-1) })
	assert.Panics(t, func() { httpserver.WithWriteTimeout(0) })
	assert.Panics(t, func() { httpserver.WithIdleTimeout(0) })
	assert.Panics(t, func() { httpserver.WithShutdownTimeout(0) })
}

func TestProbes(t *testing.T) {
	t.Parallel()

	probe := func(h http.Handler) (int, string) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec.Code, rec.Body.String()
	}

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		code, body := probe(httpserver.LivenessHandler())
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ALIVE", body)
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		ok := func(context.Context) error { return nil }
		code, body := probe(httpserver.ReadinessHandler(nil, time.Second, ok, ok))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "READY", body)
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		fail := func(context.Context) error { return errors.New("db down") }
		code, body := probe(httpserver.ReadinessHandler(nil, time.Second, fail))
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "NOT_READY", body)
	})

	t.Run("check gets deadline", func(t *testing.T) {
		t.Parallel()
		var hasDeadline bool
		check := func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}
		probe(httpserver.ReadinessHandler(nil, time.Second, check))
		assert.True(t, hasDeadline)
	})
}
