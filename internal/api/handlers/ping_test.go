package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appstarter/internal/config"
	"appstarter/internal/core"
	"appstarter/internal/types"
)

func cacheConfiguredConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Cache.RedisURL = "redis://localhost:6379"
	return cfg
}

func doPing(handler *PingHandler, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.RemoteAddr = "203.0.113.7:4567"
	if mutate != nil {
		mutate(req)
	}
	rr := httptest.NewRecorder()
	handler.Handle(rr, req)
	return rr
}

func TestPingHandler_UnconfiguredCacheIs503(t *testing.T) {
	handler := NewPingHandler(&config.Config{}, &fakeServices{}, nil)

	rr := doPing(handler, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	var resp core.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, string(types.ErrCodeDependencyUnconfigured), resp.Error)
}

func TestPingHandler_ServiceResolutionFailureIsReported(t *testing.T) {
	services := &fakeServices{cacheErr: &config.ConfigError{Service: "cache", Missing: []string{"REDIS_URL"}}}
	handler := NewPingHandler(cacheConfiguredConfig(), services, nil)

	rr := doPing(handler, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestPingHandler_AllowedRequest(t *testing.T) {
	cacheSvc := &fakeCacheService{
		rateLimitResult: types.RateLimitResult{Allowed: true, Remaining: 9, Reset: 1770000000},
	}
	handler := NewPingHandler(cacheConfiguredConfig(), &fakeServices{cacheSvc: cacheSvc}, nil)

	rr := doPing(handler, nil)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp PingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "203.0.113.7", resp.IP)
	assert.Equal(t, 9, resp.Remaining)
	assert.Equal(t, int64(1770000000), resp.Reset)
	assert.Empty(t, resp.Error)

	// The limiter was consulted with the transport-derived IP.
	assert.Equal(t, []string{"203.0.113.7"}, cacheSvc.rateLimitIPs)
}

func TestPingHandler_DeniedRequestIs429(t *testing.T) {
	cacheSvc := &fakeCacheService{
		rateLimitResult: types.RateLimitResult{Allowed: false, Remaining: 0, Reset: 1770000000},
	}
	handler := NewPingHandler(cacheConfiguredConfig(), &fakeServices{cacheSvc: cacheSvc}, nil)

	rr := doPing(handler, nil)

	require.Equal(t, http.StatusTooManyRequests, rr.Code)

	var resp PingResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Zero(t, resp.Remaining)
	assert.Equal(t, string(types.ErrCodeRateLimit), resp.Error)
}

func TestPingHandler_ForwardedHeaderDrivesTheLimiterKey(t *testing.T) {
	cacheSvc := &fakeCacheService{
		rateLimitResult: types.RateLimitResult{Allowed: true, Remaining: 9},
	}
	handler := NewPingHandler(cacheConfiguredConfig(), &fakeServices{cacheSvc: cacheSvc}, nil)

	rr := doPing(handler, func(req *http.Request) {
		req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"198.51.100.4"}, cacheSvc.rateLimitIPs)
}

func TestPingHandler_LimiterFailureIsReported(t *testing.T) {
	cacheSvc := &fakeCacheService{
		rateLimitErr: types.NewAppError(types.ErrCodeDependencyFailed, "rate limit check failed", nil),
	}
	handler := NewPingHandler(cacheConfiguredConfig(), &fakeServices{cacheSvc: cacheSvc}, nil)

	rr := doPing(handler, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
