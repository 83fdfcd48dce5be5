package api

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler handles GET /health. The store is required for serving, so
// an unreachable store makes the instance unhealthy (503). Redis only backs
// frequency caps and the sweep lock; its failure is reported but degrades
// rather than fails the check.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	code := http.StatusOK

	if err := s.Store.Ping(ctx); err != nil {
		resp.Checks["store"] = err.Error()
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else {
		resp.Checks["store"] = "ok"
	}

	if s.Redis != nil {
		if err := s.Redis.Client.Ping(ctx).Err(); err != nil {
			resp.Checks["redis"] = err.Error()
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		} else {
			resp.Checks["redis"] = "ok"
		}
	}

	s.Metrics.IncrementRequests(endpoint, method, strconv.Itoa(code))
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, code, resp)
}
