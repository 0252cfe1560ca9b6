package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig defines the config for Tracing middleware.
type TracingConfig struct {
	// ServiceName is the server name recorded on spans.
	ServiceName string

	// TracerProvider overrides the global provider. Mostly used in tests.
	TracerProvider trace.TracerProvider

	// SkipPaths is a list of paths that never start a span.
	SkipPaths []string
}

// Tracing returns a middleware that starts a server span per request and
// extracts the W3C trace context from incoming headers.
func Tracing(serviceName string) gin.HandlerFunc {
	return TracingWithConfig(TracingConfig{
		ServiceName: serviceName,
		SkipPaths:   []string{"/healthz", "/metrics"},
	})
}

// TracingWithConfig returns a Tracing middleware with custom config.
func TracingWithConfig(config TracingConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	opts := []otelgin.Option{
		otelgin.WithFilter(func(r *http.Request) bool {
			return !skipPaths[r.URL.Path]
		}),
	}
	if config.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(config.TracerProvider))
	}
	return otelgin.Middleware(config.ServiceName, opts...)
}

// SpanRequestID tags the current span with the request ID. It must run after
// both RequestID and Tracing.
func SpanRequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if requestID := GetRequestID(c); requestID != "" {
			trace.SpanFromContext(c.Request.Context()).SetAttributes(attribute.String("request.id", requestID))
		}
		c.Next()
	}
}
