package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerserver_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bannerserver_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// slots answered with the fallback thumbnail instead of a banner
	FallbackCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerserver_slot_fallback_total",
			Help: "Total slot fills answered with the fallback thumbnail",
		},
		[]string{"slot"},
	)

	// number of impression events received (status code label)
	ImpressionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerserver_impressions_total",
			Help: "Total impression events",
		},
		[]string{"status"},
	)

	// number of events recorded, labelled by type
	EventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerserver_events_total",
			Help: "Total events recorded",
		},
		[]string{"type"},
	)

	// delivered impressions per campaign, refreshed on report queries
	CampaignImpressions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bannerserver_campaign_impressions",
			Help: "Aggregated impressions delivered per campaign",
		},
		[]string{"campaign"},
	)

	// number of errors persisting impressions
	ImpressionPersistErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bannerserver_impression_persist_errors_total",
			Help: "Total impression persistence errors",
		},
	)

	// rate limit hits per endpoint
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerserver_ratelimit_hits_total",
			Help: "Total rate limit hits per endpoint",
		},
		[]string{"endpoint"},
	)

	// rate limit requests per endpoint
	RateLimitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bannerserver_ratelimit_requests_total",
			Help: "Total rate limited requests per endpoint",
		},
		[]string{"endpoint"},
	)

	// number of campaign reports served
	ReportCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bannerserver_reports_total",
			Help: "Total campaign reports served",
		},
	)

	// duration of daily expiry sweep passes
	SweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bannerserver_sweep_duration_seconds",
			Help:    "Duration of daily expiry sweep passes",
			Buckets: prometheus.DefBuckets,
		},
	)

	// banners the sweep failed to expire
	SweepFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bannerserver_sweep_failures_total",
			Help: "Total banners the expiry sweep failed to process",
		},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		FallbackCount,
		ImpressionCount,
		EventCount,
		CampaignImpressions,
		ImpressionPersistErrors,
		RateLimitHits,
		RateLimitRequests,
		ReportCount,
		SweepDuration,
		SweepFailures,
	)
}
