package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/middleware"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/reporting"
)

const defaultReportDays = 30

// CampaignReportHandler handles GET /campaigns/{id}/report. Totals come
// from the relational store; the daily series comes from the event stream.
func (s *Server) CampaignReportHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "CampaignReportHandler")
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "campaign_report"
	const method = "GET"

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	days := defaultReportDays
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = n
	}

	span.SetAttributes(attribute.Int("campaign_id", id), attribute.Int("days", days))

	summary, err := reporting.GenerateCampaignReport(ctx, s.Store, s.Analytics, id, days)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.Metrics.IncrementRequests(endpoint, method, "404")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}
		logger.Error("generate campaign report", zap.Error(err), zap.Int("campaign_id", id))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "report generation failed", http.StatusInternalServerError)
		return
	}

	s.Metrics.IncrementReports()
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, summary)
}
