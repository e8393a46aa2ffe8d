package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is anything readiness can probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to a Pinger
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler handles GET /healthz. It only reports process liveness.
type HealthHandler struct{}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler handles GET /readyz, probing every backing dependency
type ReadyHandler struct {
	logger *slog.Logger
	checks map[string]Pinger
}

// NewReadyHandler creates a readiness handler over named dependency probes
func NewReadyHandler(logger *slog.Logger, checks map[string]Pinger) *ReadyHandler {
	return &ReadyHandler{logger: logger, checks: checks}
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed",
				slog.String("dependency", name),
				slog.String("error", err.Error()),
			)
			results[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	writeJSON(w, status, results)
}
