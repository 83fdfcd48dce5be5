package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// This replaces direct access to global Prometheus metrics with dependency injection
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Slot-fill metrics
	IncrementFallbacks(slot string)

	// Event tracking metrics
	IncrementImpressions(status string)
	IncrementEvent(eventType string)

	// Delivery tracking metrics
	SetCampaignImpressions(campaign string, count float64)
	IncrementImpressionPersistErrors()

	// Rate limiting metrics
	IncrementRateLimitRequests(endpoint string)
	IncrementRateLimitHits(endpoint string)

	// Report metrics
	IncrementReports()

	// Expiry sweep metrics
	RecordSweepDuration(duration time.Duration)
	IncrementSweepFailures()
}

// PrometheusRegistry implements MetricsRegistry using the global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

// HTTP request metrics
func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Slot-fill metrics
func (r *PrometheusRegistry) IncrementFallbacks(slot string) {
	FallbackCount.WithLabelValues(slot).Inc()
}

// Event tracking metrics
func (r *PrometheusRegistry) IncrementImpressions(status string) {
	ImpressionCount.WithLabelValues(status).Inc()
}

func (r *PrometheusRegistry) IncrementEvent(eventType string) {
	EventCount.WithLabelValues(eventType).Inc()
}

// Delivery tracking metrics
func (r *PrometheusRegistry) SetCampaignImpressions(campaign string, count float64) {
	CampaignImpressions.WithLabelValues(campaign).Set(count)
}

func (r *PrometheusRegistry) IncrementImpressionPersistErrors() {
	ImpressionPersistErrors.Inc()
}

// Rate limiting metrics
func (r *PrometheusRegistry) IncrementRateLimitRequests(endpoint string) {
	RateLimitRequests.WithLabelValues(endpoint).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitHits(endpoint string) {
	RateLimitHits.WithLabelValues(endpoint).Inc()
}

// Report metrics
func (r *PrometheusRegistry) IncrementReports() {
	ReportCount.Inc()
}

// Expiry sweep metrics
func (r *PrometheusRegistry) RecordSweepDuration(duration time.Duration) {
	SweepDuration.Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementSweepFailures() {
	SweepFailures.Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

// HTTP request metrics
func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

// Slot-fill metrics
func (r *NoOpRegistry) IncrementFallbacks(slot string) {}

// Event tracking metrics
func (r *NoOpRegistry) IncrementImpressions(status string) {}
func (r *NoOpRegistry) IncrementEvent(eventType string)    {}

// Delivery tracking metrics
func (r *NoOpRegistry) SetCampaignImpressions(campaign string, count float64) {}
func (r *NoOpRegistry) IncrementImpressionPersistErrors()                     {}

// Rate limiting metrics
func (r *NoOpRegistry) IncrementRateLimitRequests(endpoint string) {}
func (r *NoOpRegistry) IncrementRateLimitHits(endpoint string)     {}

// Report metrics
func (r *NoOpRegistry) IncrementReports() {}

// Expiry sweep metrics
func (r *NoOpRegistry) RecordSweepDuration(duration time.Duration) {}
func (r *NoOpRegistry) IncrementSweepFailures()                    {}
