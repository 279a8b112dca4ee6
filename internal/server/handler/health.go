package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether a shared backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	cache  Pinger
	now    func() time.Time
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. cache is nil for the in-process
// backend, which has nothing to check.
func NewHealthHandler(cache Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{cache: cache, now: time.Now, logger: logger}
}

// HealthCheck responds with a liveness status and the server time in Unix
// milliseconds. It never touches an upstream; with a shared cache configured
// it pings the cache and reports 503 when that fails.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":    "ok",
		"timestamp": h.now().UnixMilli(),
	}
	if h.cache == nil {
		writeJSON(w, http.StatusOK, body)
		return
	}

	if err := h.cache.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health: cache ping failed",
			slog.String("error", err.Error()),
		)
		body["status"] = "degraded"
		body["cache"] = "unreachable"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["cache"] = "ok"
	writeJSON(w, http.StatusOK, body)
}
