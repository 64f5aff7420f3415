package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// pinger defines the minimal interface for dependency health checks.
type pinger interface {
	Ping(ctx context.Context) error
}

// Check is one dependency checked by the health endpoints. A failing
// optional check degrades the service but does not make it unready.
type Check struct {
	Name     string
	Pinger   pinger
	Optional bool
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	log     *slog.Logger
	checks  []Check
	version string
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. Ping failures are logged;
// responses carry only the component status.
func NewHealthHandler(logger *slog.Logger, version string, checks ...Check) *HealthHandler {
	return &HealthHandler{
		log:     logger.With("handler", "health"),
		checks:  checks,
		version: version,
		timeout: 3 * time.Second,
	}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Live is the liveness endpoint. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready is the readiness endpoint: 200 if every required dependency answers,
// 503 if not.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for _, c := range h.checks {
		if c.Optional {
			continue
		}
		if err := c.Pinger.Ping(ctx); err != nil {
			h.log.WarnContext(ctx, "readiness check failed",
				slog.String("component", c.Name), slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:    "down",
				Timestamp: time.Now(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Health pings every dependency with latency measurement and includes the
// version. Overall status is "down" when a required check fails and
// "degraded" when only optional ones do.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	components := make(map[string]CompStatus, len(h.checks))
	overall := "ok"

	for _, c := range h.checks {
		start := time.Now()
		err := c.Pinger.Ping(ctx)
		latency := time.Since(start)

		if err != nil {
			h.log.WarnContext(ctx, "health check failed",
				slog.String("component", c.Name), slog.String("error", err.Error()))
			components[c.Name] = CompStatus{Status: "down"}
			switch {
			case !c.Optional:
				overall = "down"
			case overall == "ok":
				overall = "degraded"
			}
			continue
		}
		components[c.Name] = CompStatus{Status: "ok", Latency: latency.String()}
	}

	status := http.StatusOK
	if overall == "down" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  time.Now(),
	})
}
