// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package observability

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()

	s := NewServer("127.0.0.1:0", ready)
	_, err := s.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func fetch(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:gosec // local test server
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck // test cleanup

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	s := startServer(t, nil)

	s.Metrics().RegistrationsTotal.WithLabelValues("created").Inc()
	s.Metrics().LoginsTotal.WithLabelValues("failure").Inc()
	s.Metrics().RateLimitedTotal.WithLabelValues("login").Inc()

	code, body := fetch(t, "http://"+s.Addr()+"/metrics")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "klickon_auth_registrations_total")
	assert.Contains(t, body, "klickon_auth_logins_total")
	assert.Contains(t, body, "klickon_auth_rate_limited_total")
	assert.Contains(t, body, "go_goroutines", "standard Go collector is registered")
}

func TestServer_Liveness(t *testing.T) {
	s := startServer(t, nil)

	code, body := fetch(t, "http://"+s.Addr()+"/healthz/liveness")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)
}

func TestServer_Readiness(t *testing.T) {
	ready := false
	s := startServer(t, func() bool { return ready })

	code, _ := fetch(t, "http://"+s.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	ready = true
	code, _ = fetch(t, "http://"+s.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusOK, code)
}

func TestServer_Readiness_NilChecker(t *testing.T) {
	s := startServer(t, nil)

	code, _ := fetch(t, "http://"+s.Addr()+"/healthz/readiness")
	assert.Equal(t, http.StatusOK, code, "nil checker means always ready")
}

func TestServer_DoubleStart(t *testing.T) {
	s := startServer(t, nil)

	_, err := s.Start()
	require.Error(t, err, "second Start must fail while running")
}

func TestServer_StopIdempotent(t *testing.T) {
	s := NewServer("127.0.0.1:0", nil)
	_, err := s.Start()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx), "stopping a stopped server is a no-op")
}
