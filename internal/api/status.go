package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/middleware"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
)

type statusRequest struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	SenderID int    `json:"senderId"`
}

// CampaignStatusHandler handles PUT /campaigns/{id}/status: an admin moves a
// campaign through its lifecycle. The transition is applied to the campaign
// and all its banners, and approval, suspension and rejection notify the
// campaign owner.
func (s *Server) CampaignStatusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "CampaignStatusHandler",
		trace.WithAttributes(
			attribute.String("http.method", "PUT"),
			attribute.String("http.route", "/campaigns/{id}/status"),
		))
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "campaign_status"
	const method = "PUT"

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "status required", http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.Int("campaign_id", id),
		attribute.String("status", req.Status),
	)

	campaign, err := s.Lifecycle.SetCampaignStatus(ctx, id, req.Status, req.Message, req.SenderID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			s.Metrics.IncrementRequests(endpoint, method, "404")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "campaign not found", http.StatusNotFound)
		case logic.IsValidation(err):
			logger.Warn("status transition rejected", zap.Error(err), zap.Int("campaign_id", id))
			s.Metrics.IncrementRequests(endpoint, method, "422")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "status transition")
			logger.Error("set campaign status", zap.Error(err), zap.Int("campaign_id", id))
			s.Metrics.IncrementRequests(endpoint, method, "500")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "status not updated", http.StatusInternalServerError)
		}
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
	writeJSON(w, http.StatusOK, campaignResponse{Campaign: campaign})
}
