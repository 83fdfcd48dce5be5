package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/middleware"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/token"
)

// SlotsHandler handles GET /slots: it resolves the viewer's context and
// returns one banner per configured store placement.
//
// Viewer identity comes from the viewer_id query parameter. Gender, age and
// location can be supplied explicitly; otherwise gender falls back to the
// viewer's profile and location to a GeoIP lookup of the client IP. OS and
// device are derived from the User-Agent header.
func (s *Server) SlotsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "SlotsHandler",
		trace.WithAttributes(
			attribute.String("http.method", "GET"),
			attribute.String("http.route", "/slots"),
		))
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "slots"
	const method = "GET"

	viewerID, err := strconv.Atoi(r.URL.Query().Get("viewer_id"))
	if err != nil || viewerID <= 0 {
		logger.Warn("invalid viewer id", zap.String("viewer_id", r.URL.Query().Get("viewer_id")))
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "viewer_id required", http.StatusBadRequest)
		return
	}

	gender := r.URL.Query().Get("gender")
	if gender == "" {
		if g, err := s.Store.GetViewerGender(ctx, viewerID); err == nil {
			gender = g
		}
	}

	var age *int
	if a := r.URL.Query().Get("age"); a != "" {
		if n, err := strconv.Atoi(a); err == nil {
			age = &n
		}
	}

	osName, device := logic.ResolvePlatform(r.UserAgent())
	location := r.URL.Query().Get("location")
	if location == "" {
		location = logic.ResolveLocation(s.GeoIP, clientIP(r))
	}

	requestID := uuid.NewString()
	viewer := logic.NewViewerContext(viewerID, gender, age, location, osName, device, time.Now())

	// Redis keeps a fast-path copy of per-banner frequencies; the filler
	// falls back to the relational store when it is unavailable.
	if freqs, ok := logic.BannerFrequencies(s.Redis, viewerID); ok {
		viewer.Frequencies = freqs
	}

	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.Int("viewer_id", viewerID),
		attribute.String("viewer.location", location),
		attribute.String("viewer.os", osName),
		attribute.String("viewer.device", device),
	)

	s.recordEvent(r, analytics.EventRecord{
		EventType: analytics.EventSlotRequest,
		RequestID: requestID,
		ViewerID:  analytics.Int32Ptr(viewerID),
		Gender:    analytics.StrPtr(gender),
		OS:        analytics.StrPtr(osName),
		Device:    analytics.StrPtr(device),
		Location:  analytics.StrPtr(location),
	})

	fills, err := s.Filler.FillSlots(ctx, viewer)
	if err != nil {
		logger.Error("fill slots", zap.Error(err), zap.Int("viewer_id", viewerID))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "slot fill failed", http.StatusInternalServerError)
		return
	}

	for name, entry := range fills {
		fill := entry.Banner
		if fill.ID == 0 {
			s.Metrics.IncrementFallbacks(name)
			s.recordEvent(r, analytics.EventRecord{
				EventType: analytics.EventSlotFallback,
				RequestID: requestID,
				ViewerID:  analytics.Int32Ptr(viewerID),
				SlotName:  analytics.StrPtr(name),
			})
			continue
		}

		tok, err := token.Generate(requestID, fill.ID, fill.CampaignID, viewerID, name, s.TokenSecret)
		if err != nil {
			logger.Error("generate token", zap.Error(err), zap.Int("banner_id", fill.ID))
		} else {
			fill.Token = tok
			fills[name] = struct {
				Banner models.SlotFill `json:"banner"`
			}{Banner: fill}
		}

		s.recordEvent(r, analytics.EventRecord{
			EventType:  analytics.EventBannerServed,
			RequestID:  requestID,
			BannerID:   analytics.Int32Ptr(fill.ID),
			CampaignID: analytics.Int32Ptr(fill.CampaignID),
			ViewerID:   analytics.Int32Ptr(viewerID),
			SlotName:   analytics.StrPtr(name),
			Gender:     analytics.StrPtr(gender),
			OS:         analytics.StrPtr(osName),
			Device:     analytics.StrPtr(device),
			Location:   analytics.StrPtr(location),
		})
	}

	if observability.ShouldSample(observability.GetSamplingRate()) {
		logger.Info("slots filled",
			zap.String("request_id", requestID),
			zap.Int("viewer_id", viewerID),
			zap.Int("slots", len(fills)),
			zap.String("event_type", "slot_request"))
	}
	s.Metrics.IncrementEvent(analytics.EventSlotRequest)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	writeJSON(w, http.StatusOK, fills)
}
