// This file implements the rate-limited ping endpoint: each request spends
// one slot of the caller IP's sliding window and reports the remaining
// budget.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"appstarter/internal/config"
	"appstarter/internal/core"
	"appstarter/internal/types"
)

// PingResponse is the rate-limit check response body.
type PingResponse struct {
	OK        bool   `json:"ok"`
	IP        string `json:"ip"`
	Remaining int    `json:"remaining"`
	Reset     int64  `json:"reset"`
	Error     string `json:"error,omitempty"`
}

// PingHandler serves GET /api/ping.
type PingHandler struct {
	cfg      *config.Config
	services Services
	logger   *slog.Logger
}

// NewPingHandler creates the ping handler.
func NewPingHandler(cfg *config.Config, services Services, logger *slog.Logger) *PingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PingHandler{cfg: cfg, services: services, logger: logger}
}

// RegisterRoutes mounts the ping endpoint.
func (h *PingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ping", h.Handle)
}

// Handle checks the caller IP against the limiter: 503 when the limiter
// backend is unconfigured, 429 when the window is exhausted, 200 otherwise.
func (h *PingHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.HasCache() {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeDependencyUnconfigured,
			"rate limiting is not configured",
			nil,
		))
		return
	}

	svc, err := h.services.CacheService()
	if err != nil {
		core.Error(w, r, err)
		return
	}

	ip := ClientIP(r)
	result, err := svc.CheckRateLimit(r.Context(), ip)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "rate limit check failed", "error", err)
		core.Error(w, r, err)
		return
	}

	resp := PingResponse{
		OK:        result.Allowed,
		IP:        ip,
		Remaining: result.Remaining,
		Reset:     result.Reset,
	}

	if !result.Allowed {
		resp.Error = string(types.ErrCodeRateLimit)
		core.JSON(w, r, http.StatusTooManyRequests, resp)
		return
	}

	core.JSON(w, r, http.StatusOK, resp)
}
