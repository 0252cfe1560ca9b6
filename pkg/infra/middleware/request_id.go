package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/astramed/pkg/utils/id"
	"github.com/kart-io/astramed/pkg/utils/response"
)

// HeaderXRequestID is the header carrying the request identifier.
const HeaderXRequestID = response.HeaderRequestID

// ContextKeyRequestID is the gin context key holding the request ID.
const ContextKeyRequestID = "request_id"

type requestIDKey struct{}

// RequestIDConfig defines the config for RequestID middleware.
type RequestIDConfig struct {
	// Header is the header name to use for request ID.
	// Default: "X-Request-ID"
	Header string

	// Generator generates request IDs.
	// Default: id.NewUUID
	Generator func() string
}

// RequestID returns a middleware that adds a unique request ID to each request.
// The request ID is added to:
//   - Request and response headers (X-Request-ID)
//   - The gin context and the request context.Context
func RequestID() gin.HandlerFunc {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig returns a RequestID middleware with custom config.
func RequestIDWithConfig(config RequestIDConfig) gin.HandlerFunc {
	if config.Header == "" {
		config.Header = HeaderXRequestID
	}
	if config.Generator == nil {
		config.Generator = id.NewUUID
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(config.Header)
		if requestID == "" {
			requestID = config.Generator()
			// 错误响应从请求头读取 request id
			c.Request.Header.Set(config.Header, requestID)
		}

		c.Header(config.Header, requestID)
		c.Set(ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// WithRequestID stores the request ID in ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// GetRequestID returns the request ID of c, or "" when RequestID did not run.
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
