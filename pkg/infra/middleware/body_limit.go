package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/astramed/pkg/utils/errors"
	"github.com/kart-io/astramed/pkg/utils/response"
)

// DefaultBodyLimit 默认请求体上限 (1 MiB)
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit rejects requests whose body exceeds maxBytes.
// Requests declaring a larger Content-Length are rejected up front; chunked
// bodies are capped with http.MaxBytesReader and fail when read.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Fail(c, errors.ErrRequestTooLarge)
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
