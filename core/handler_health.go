package core

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler reports liveness for load-balancer and orchestrator
// probes: it pings the database and responds 503 if that fails.
// Endpoint: GET /healthz
// Authenticated: No
func (a *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if _, err := a.db.CountSubmissionsByEmail(ctx, "", time.Time{}); err != nil {
		a.logger.Error("health check failed", "error", err)
		status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
