package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sadaatalikazmi/backend-meta-mart/internal/logic/ratelimit"
)

// WithRateLimit returns middleware that applies per-endpoint token bucket
// rate limiting. The endpoint name keys the bucket, so each wrapped route
// gets its own burst allowance.
func WithRateLimit(limiter *ratelimit.EndpointLimiter, endpoint string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(endpoint) {
				LoggerFromRequest(r, logger).Warn("rate limit exceeded",
					zap.String("endpoint", endpoint),
					zap.String("remote_addr", r.RemoteAddr),
				)
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
