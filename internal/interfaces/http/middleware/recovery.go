package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// Recovery recovers from panics and answers with a server_error envelope.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				log.Error(c.Request.Context(), "Panic recovered", err,
					logger.String("stack", string(debug.Stack())))
				AbortWithError(c, errors.ErrServerError("internal server error").WithCause(err))
			}
		}()
		c.Next()
	}
}
