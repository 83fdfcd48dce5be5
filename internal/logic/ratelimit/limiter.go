package ratelimit

import (
	"fmt"
	"sync"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/observability"
)

// EndpointLimiter manages rate limiting across serving endpoints.
//
// Each endpoint gets its own token bucket, created lazily on first access,
// so a burst of interaction pings cannot starve slot fills and vice versa.
// The limiter reports rate limiting activity through the injected metrics
// registry.
type EndpointLimiter struct {
	buckets map[string]*TokenBucket       // Map of endpoint name to token bucket
	mu      sync.RWMutex                  // Protects the buckets map
	config  Config                        // Rate limiting configuration
	metrics observability.MetricsRegistry // Metrics registry for tracking rate limiting activity
}

// Config holds the configuration for rate limiting.
type Config struct {
	Capacity   int  // Token bucket capacity (burst allowance)
	RefillRate int  // Tokens added per second (sustained rate)
	Enabled    bool // Whether rate limiting is active
}

// NewEndpointLimiter creates a new endpoint rate limiter with the given configuration.
func NewEndpointLimiter(config Config, metrics observability.MetricsRegistry) *EndpointLimiter {
	return &EndpointLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
	}
}

// Allow checks if a request to the given endpoint should be allowed.
//
// Returns true if the request should be allowed (token available) and false
// if the request should be rate limited. If rate limiting is disabled via
// config, this method always returns true. Buckets are created on demand for
// endpoints not seen before.
func (el *EndpointLimiter) Allow(endpoint string) bool {
	if !el.config.Enabled {
		return true
	}

	el.metrics.IncrementRateLimitRequests(endpoint)

	el.mu.RLock()
	bucket, exists := el.buckets[endpoint]
	el.mu.RUnlock()

	if !exists {
		// Double-checked locking pattern to avoid race conditions
		el.mu.Lock()
		bucket, exists = el.buckets[endpoint]
		if !exists {
			bucket = NewTokenBucket(el.config.Capacity, el.config.RefillRate)
			el.buckets[endpoint] = bucket
		}
		el.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed {
		el.metrics.IncrementRateLimitHits(endpoint)
	}

	return allowed
}

// GetStats returns rate limiting statistics keyed by endpoint.
//
// This method is thread-safe and provides a snapshot of current statistics.
func (el *EndpointLimiter) GetStats() map[string]RateLimitStats {
	el.mu.RLock()
	defer el.mu.RUnlock()

	stats := make(map[string]RateLimitStats)
	for endpoint, bucket := range el.buckets {
		hits, total := bucket.Stats()
		hitRate := 0.0
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		stats[endpoint] = RateLimitStats{
			Endpoint: endpoint,
			Hits:     hits,
			Total:    total,
			HitRate:  hitRate,
		}
	}

	return stats
}

// RateLimitStats contains statistics about rate limiting for a single endpoint.
type RateLimitStats struct {
	Endpoint string  `json:"Endpoint"` // Endpoint name
	Hits     int64   `json:"Hits"`     // Number of rate limited requests
	Total    int64   `json:"Total"`    // Total number of requests processed
	HitRate  float64 `json:"HitRate"`  // Fraction of requests rate limited (0.0-1.0)
}

// String returns a human-readable representation of the rate limit statistics.
func (rls RateLimitStats) String() string {
	return fmt.Sprintf("Endpoint %s: %d/%d hits (%.2f%%)",
		rls.Endpoint, rls.Hits, rls.Total, rls.HitRate*100)
}
