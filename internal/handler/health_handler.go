package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"galeri-gateway/internal/backend"
)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Ready reports whether the backend is reachable. The probe uses the public
// password-requirements endpoint, so an unauthenticated gateway can still
// answer readiness truthfully.
func Ready(client *backend.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		check := checkBackend(ctx, client)

		response := map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks": map[string]HealthCheckResult{
				"backend": check,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		if check.Status == "up" {
			response["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			response["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(w).Encode(response)
	}
}

// checkBackend verifies backend connectivity
func checkBackend(ctx context.Context, client *backend.Client) HealthCheckResult {
	start := time.Now()
	_, err := client.PasswordRequirements(ctx)
	latency := time.Since(start)

	if err != nil && backend.IsNetworkError(err) {
		return HealthCheckResult{
			Status:    "down",
			LatencyMs: latency.Milliseconds(),
			Error:     err.Error(),
		}
	}

	// Any HTTP response, even an error status, means the backend is up
	return HealthCheckResult{
		Status:    "up",
		LatencyMs: latency.Milliseconds(),
	}
}
