package middleware

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxLogger struct{}

// withTrace annotates the logger with trace and span IDs so handler log
// lines can be correlated with the exported trace. Invalid span contexts
// (tracing disabled, unsampled request) leave the logger untouched.
func withTrace(logger *zap.Logger, sc trace.SpanContext) *zap.Logger {
	if !sc.IsValid() {
		return logger
	}
	return logger.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// WithTraceLogger installs a request-scoped logger in the request context.
// Handlers retrieve it with LoggerFromRequest.
func WithTraceLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := withTrace(base, trace.SpanContextFromContext(r.Context()))
			ctx := context.WithValue(r.Context(), ctxLogger{}, reqLogger)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoggerFromContext returns the request-scoped logger, falling back to the
// given logger (annotated with any trace the context carries) when the
// middleware did not run, as in tests and background jobs.
func LoggerFromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger, ok := ctx.Value(ctxLogger{}).(*zap.Logger); ok {
		return logger
	}
	return withTrace(fallback, trace.SpanContextFromContext(ctx))
}

// LoggerFromRequest is shorthand for LoggerFromContext on the request context.
func LoggerFromRequest(r *http.Request, fallback *zap.Logger) *zap.Logger {
	return LoggerFromContext(r.Context(), fallback)
}
