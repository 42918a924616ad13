// This file implements the cached stats endpoint: serve the snapshot from
// cache when fresh, otherwise compute it from the database and cache it.
// The hit/miss label is part of the response contract.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"appstarter/internal/config"
	"appstarter/internal/core"
	"appstarter/internal/types"
)

// statsTTL is how long a computed snapshot stays fresh.
const statsTTL = 60 * time.Second

// Cache labels for the response's cache field.
const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)

// StatsResponse is the stats snapshot plus its cache provenance.
type StatsResponse struct {
	types.StatsData
	Cache string `json:"cache"`
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	cfg      *config.Config
	services Services
	logger   *slog.Logger
}

// NewStatsHandler creates the stats handler.
func NewStatsHandler(cfg *config.Config, services Services, logger *slog.Logger) *StatsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsHandler{cfg: cfg, services: services, logger: logger}
}

// RegisterRoutes mounts the stats endpoint.
func (h *StatsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.Handle)
}

// Handle returns the stats snapshot: 503 when the cache or database is
// unconfigured, otherwise 200 with the snapshot labeled "hit" or "miss".
func (h *StatsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if !h.cfg.HasCache() {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeDependencyUnconfigured,
			"cache is not configured",
			nil,
		))
		return
	}
	if !h.cfg.HasDatabase() {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeDependencyUnconfigured,
			"database is not configured",
			nil,
		))
		return
	}

	svc, err := h.services.CacheService()
	if err != nil {
		core.Error(w, r, err)
		return
	}

	cached, err := svc.GetStats(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stats cache read failed", "error", err)
		core.Error(w, r, err)
		return
	}
	if cached != nil {
		core.JSON(w, r, http.StatusOK, StatsResponse{StatsData: *cached, Cache: cacheHit})
		return
	}

	fresh, err := svc.FetchAndCacheStats(r.Context(), statsTTL)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "stats fetch failed", "error", err)
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, StatsResponse{StatsData: *fresh, Cache: cacheMiss})
}
