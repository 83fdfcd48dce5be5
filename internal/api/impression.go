package api

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/middleware"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/token"
)

type impressionResponse struct {
	Status  string `json:"status"`
	Expired bool   `json:"expired"`
}

// ImpressionHandler handles POST /impression. The signed token issued at
// slot-fill time identifies the banner, campaign and viewer; the handler
// appends one impression row and reports whether the delivery pushed the
// banner over its exposure limit.
func (s *Server) ImpressionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "ImpressionHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/impression"),
		))
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "impression"
	const method = "POST"

	tok := r.URL.Query().Get("t")
	if tok == "" {
		logger.Warn("missing token")
		s.Metrics.IncrementRequests(endpoint, method, "401")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}
	claims, err := token.Verify(tok, s.TokenSecret, s.TokenTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid token")
		logger.Warn("token verify", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "401")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.BannerID == 0 {
		// Fallback fills are thumbnails, not campaign deliveries.
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "no banner to record", http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("request_id", claims.RequestID),
		attribute.Int("banner_id", claims.BannerID),
		attribute.Int("campaign_id", claims.CampaignID),
		attribute.Int("viewer_id", claims.ViewerID),
	)

	osName, device := logic.ResolvePlatform(r.UserAgent())

	expired, err := s.Recorder.Record(ctx, claims.BannerID, claims.ViewerID, osName, device)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			logger.Warn("impression for unknown banner or viewer",
				zap.Int("banner_id", claims.BannerID),
				zap.Int("viewer_id", claims.ViewerID))
			s.Metrics.IncrementRequests(endpoint, method, "404")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "banner or viewer not found", http.StatusNotFound)
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "record impression")
		logger.Error("record impression", zap.Error(err), zap.Int("banner_id", claims.BannerID))
		s.Metrics.IncrementImpressionPersistErrors()
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "impression not recorded", http.StatusInternalServerError)
		return
	}

	s.recordEvent(r, analytics.EventRecord{
		EventType:  analytics.EventImpression,
		RequestID:  claims.RequestID,
		BannerID:   analytics.Int32Ptr(claims.BannerID),
		CampaignID: analytics.Int32Ptr(claims.CampaignID),
		ViewerID:   analytics.Int32Ptr(claims.ViewerID),
		SlotName:   analytics.StrPtr(claims.SlotName),
		OS:         analytics.StrPtr(osName),
		Device:     analytics.StrPtr(device),
	})
	if expired {
		span.SetAttributes(attribute.Bool("banner.expired", true))
		s.recordEvent(r, analytics.EventRecord{
			EventType:  analytics.EventBannerExpired,
			RequestID:  claims.RequestID,
			BannerID:   analytics.Int32Ptr(claims.BannerID),
			CampaignID: analytics.Int32Ptr(claims.CampaignID),
		})
	}

	if observability.ShouldSample(observability.GetSamplingRate()) {
		logger.Info("impression recorded",
			zap.String("request_id", claims.RequestID),
			zap.Int("banner_id", claims.BannerID),
			zap.Int("viewer_id", claims.ViewerID),
			zap.Bool("expired", expired),
			zap.String("event_type", "impression"))
	}
	s.Metrics.IncrementImpressions("recorded")
	s.Metrics.IncrementEvent(analytics.EventImpression)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	writeJSON(w, http.StatusOK, impressionResponse{Status: "recorded", Expired: expired})
}

// InteractionHandler handles POST /interaction: a viewer tapped a served
// banner. The event lands in the analytics stream only; interactions do not
// count against exposure limits.
func (s *Server) InteractionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "InteractionHandler",
		trace.WithAttributes(
			attribute.String("http.method", "POST"),
			attribute.String("http.route", "/interaction"),
		))
	defer span.End()
	r = r.WithContext(ctx)

	logger := middleware.LoggerFromRequest(r, s.Logger)

	start := time.Now()
	const endpoint = "interaction"
	const method = "POST"

	tok := r.URL.Query().Get("t")
	if tok == "" {
		logger.Warn("missing token")
		s.Metrics.IncrementRequests(endpoint, method, "401")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}
	claims, err := token.Verify(tok, s.TokenSecret, s.TokenTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid token")
		logger.Warn("token verify", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "401")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	osName, device := logic.ResolvePlatform(r.UserAgent())
	s.recordEvent(r, analytics.EventRecord{
		EventType:  analytics.EventInteraction,
		RequestID:  claims.RequestID,
		BannerID:   analytics.Int32Ptr(claims.BannerID),
		CampaignID: analytics.Int32Ptr(claims.CampaignID),
		ViewerID:   analytics.Int32Ptr(claims.ViewerID),
		SlotName:   analytics.StrPtr(claims.SlotName),
		OS:         analytics.StrPtr(osName),
		Device:     analytics.StrPtr(device),
	})

	if observability.ShouldSample(observability.GetSamplingRate()) {
		logger.Info("interaction",
			zap.String("request_id", claims.RequestID),
			zap.Int("banner_id", claims.BannerID),
			zap.String("event_type", "interaction"))
	}
	s.Metrics.IncrementEvent(analytics.EventInteraction)
	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
