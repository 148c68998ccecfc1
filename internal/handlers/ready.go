package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"secdash/internal/logger"
	"secdash/middleware"
)

const readinessTimeout = 3 * time.Second

// HealthCheck reports that the process is serving requests.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// DependencyCheck is one dependency checked by ReadinessCheck.
type DependencyCheck func(ctx context.Context) error

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ReadinessCheck runs every check and answers 503 when one fails.
func ReadinessCheck(checks map[string]DependencyCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				logger.HTTPError(r.Method, r.URL.Path, status, err).
					Str("request_id", requestID).
					Str("check", name).
					Msg("readiness check failed")
				continue
			}
			resp.Checks[name] = "ok"
		}
		writeJSON(w, r, status, resp)
		if status == http.StatusOK {
			logger.HTTPEvent(r.Method, r.URL.Path, status, 0).
				Str("request_id", requestID).
				Msg("readiness check")
		}
	}
}
