//go:build integration

// Package test contains integration tests that exercise the full API stack
// against real backing services. These tests are skipped by default during
// `go test ./...` and must be run explicitly with the integration build tag:
//
//	go test -v -tags integration ./test/
//
// Prerequisites:
//   - PostgreSQL reachable via DATABASE_URL (users table applied)
//   - Redis reachable via REDIS_URL
package test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appstarter/internal/api/handlers"
	"appstarter/internal/config"
	"appstarter/internal/core"
	"appstarter/internal/registry"
)

// newStack builds the full router over the process environment, skipping the
// test when the required backends are not configured.
func newStack(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	if !cfg.HasDatabase() {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	if !cfg.HasCache() {
		t.Skip("REDIS_URL not set; skipping integration test")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New(cfg, logger)
	t.Cleanup(func() { _ = reg.Close() })

	srv, err := core.NewServer(cfg, logger)
	require.NoError(t, err)
	srv.MountRoutes(
		handlers.NewPingHandler(cfg, reg, logger).RegisterRoutes,
		handlers.NewStatsHandler(cfg, reg, logger).RegisterRoutes,
	)
	return srv.Handler(), cfg
}

func TestIntegration_Health(t *testing.T) {
	router, _ := newStack(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var resp core.HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Services.Database)
	assert.True(t, resp.Services.Cache)
}

func TestIntegration_PingRateLimitWindow(t *testing.T) {
	router, _ := newStack(t)

	// A fresh IP gets 10 admissions, then a 429. Derive the IP from the
	// clock so reruns within the window use a fresh limiter key.
	ip := "198.51.100." + strconv.FormatInt(time.Now().Unix()%250, 10)

	var lastAllowed handlers.PingResponse
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "request %d should be admitted", i+1)
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lastAllowed))
	}
	assert.Zero(t, lastAllowed.Remaining)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("X-Forwarded-For", ip)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestIntegration_StatsHitAfterMiss(t *testing.T) {
	router, _ := newStack(t)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, second.Code)

	var resp handlers.StatsResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, "hit", resp.Cache)
}
