package core

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appstarter/internal/types"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestJSON_WritesStatusAndBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(rr, req, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"hello":"world"}`, rr.Body.String())
}

func TestJSON_UnmarshalableDataFallsBackTo500(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(rr, req, http.StatusOK, map[string]any{"bad": func() {}})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), resp.Error)
}

func TestError_AppErrorMapsToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			"not found",
			types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil),
			http.StatusNotFound,
			"not_found_user",
		},
		{
			"rate limited",
			types.NewAppError(types.ErrCodeRateLimit, "too many requests", nil),
			http.StatusTooManyRequests,
			"rate_limit_exceeded",
		},
		{
			"unconfigured dependency",
			types.NewAppError(types.ErrCodeDependencyUnconfigured, "cache is not configured", nil),
			http.StatusServiceUnavailable,
			"dependency_unconfigured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			Error(rr, req, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestError_WrappedAppErrorIsRecognized(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	inner := types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
	Error(rr, req, types.NewAppError(types.ErrCodeInternalDB, "lookup failed", inner))

	// The outermost AppError wins.
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestError_PlainErrorIsGeneric500(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	Error(rr, req, errors.New("pq: connection refused to 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	resp := decodeError(t, rr)
	assert.Equal(t, string(types.ErrCodeInternalUnexpected), resp.Error)
	// Internal details never reach the client.
	assert.NotContains(t, rr.Body.String(), "10.0.0.3")
}

func TestError_IncludesRequestID(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(types.WithRequestID(req.Context(), "req_abc123"))

	Error(rr, req, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil))

	resp := decodeError(t, rr)
	assert.Equal(t, "req_abc123", resp.RequestID)
}
