package core

import "net/http"

// HealthResponse reports process liveness and which optional integrations
// are configured. Configuration presence only; no connectivity probes.
type HealthResponse struct {
	Status   string          `json:"status"`
	Services ServiceStatuses `json:"services"`
}

// ServiceStatuses holds the per-integration configured flags.
type ServiceStatuses struct {
	Database bool `json:"database"`
	Auth     bool `json:"auth"`
	Cache    bool `json:"cache"`
	Media    bool `json:"media"`
}

// HandleHealth serves GET /health.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, HealthResponse{
		Status: "ok",
		Services: ServiceStatuses{
			Database: s.Config.HasDatabase(),
			Auth:     s.Config.HasAuth(),
			Cache:    s.Config.HasCache(),
			Media:    s.Config.HasMedia(),
		},
	})
}
