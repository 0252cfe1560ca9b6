package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/astramed/pkg/utils/errors"
	"github.com/kart-io/astramed/pkg/utils/response"
)

// RecoveryConfig defines the config for Recovery middleware.
type RecoveryConfig struct {
	// EnableStackTrace includes stack trace in error response (for development).
	EnableStackTrace bool

	// OnPanic is called when a panic occurs, after it has been logged.
	OnPanic func(c *gin.Context, err any, stack []byte)
}

// Recovery returns a middleware that recovers from panics.
func Recovery() gin.HandlerFunc {
	return RecoveryWithConfig(RecoveryConfig{})
}

// RecoveryWithConfig returns a Recovery middleware with custom config.
// The panic is converted to ErrPanic so a failing request never takes the
// process down.
func RecoveryWithConfig(config RecoveryConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()

			logger.Errorw("panic recovered",
				"panic", fmt.Sprint(r),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", GetRequestID(c),
				"stack", string(stack),
			)
			if config.OnPanic != nil {
				config.OnPanic(c, r, stack)
			}

			msg := fmt.Sprintf("panic: %v", r)
			if config.EnableStackTrace {
				msg = fmt.Sprintf("panic: %v\n%s", r, stack)
			}
			response.Fail(c, errors.ErrPanic.WithMessage(msg))
		}()
		c.Next()
	}
}
