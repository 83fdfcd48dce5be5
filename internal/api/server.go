package api

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/analytics"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/config"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/db"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/geoip"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/models"
	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"
)

var tracer = otel.Tracer("metamart-banners")

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger      *zap.Logger
	Store       models.BannerStore
	Redis       *db.RedisStore
	Analytics   analytics.Service
	GeoIP       *geoip.GeoIP
	Filler      *logic.Filler
	Recorder    *logic.Recorder
	Sweeper     *logic.Sweeper
	Lifecycle   *logic.Lifecycle
	TokenSecret []byte
	TokenTTL    time.Duration
	Metrics     observability.MetricsRegistry
	Config      config.Config
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, store models.BannerStore, redis *db.RedisStore, an analytics.Service, geo *geoip.GeoIP, filler *logic.Filler, recorder *logic.Recorder, sweeper *logic.Sweeper, lifecycle *logic.Lifecycle, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:      logger,
		Store:       store,
		Redis:       redis,
		Analytics:   an,
		GeoIP:       geo,
		Filler:      filler,
		Recorder:    recorder,
		Sweeper:     sweeper,
		Lifecycle:   lifecycle,
		TokenSecret: []byte(cfg.TokenSecret),
		TokenTTL:    cfg.TokenTTL,
		Metrics:     metrics,
		Config:      cfg,
	}
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP returns the request's originating IP, preferring X-Forwarded-For.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// recordEvent writes one analytics event, logging rather than failing the
// request when the event stream is down.
func (s *Server) recordEvent(r *http.Request, ev analytics.EventRecord) {
	if s.Analytics == nil {
		return
	}
	if err := s.Analytics.RecordEvent(r.Context(), ev); err != nil {
		s.Logger.Error("analytics record", zap.Error(err), zap.String("event_type", ev.EventType))
	}
}
