package api

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/middleware"
)

// SweepHandler handles POST /sweep: run the expiry sweep on demand instead
// of waiting for the scheduled pass. Only one sweep runs at a time across
// all instances.
func (s *Server) SweepHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "SweepHandler")
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "sweep"
	const method = "POST"

	if err := s.Sweeper.RunDaily(ctx, time.Now()); err != nil {
		if errors.Is(err, logic.ErrSweepInProgress) {
			s.Metrics.IncrementRequests(endpoint, method, "409")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "sweep already running", http.StatusConflict)
			return
		}
		span.RecordError(err)
		logger.Error("expiry sweep", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "sweep failed", http.StatusInternalServerError)
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
