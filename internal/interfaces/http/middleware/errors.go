package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/pkg/constants"
)

// TraceID returns the trace id assigned by ObservabilityMiddleware, if any.
func TraceID(c *gin.Context) string {
	traceID, _ := c.Request.Context().Value(constants.ContextKeyTraceID).(string)
	return traceID
}

// AbortWithError writes the error envelope for err and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, body := dto.ErrorResponse(err, TraceID(c))
	c.AbortWithStatusJSON(status, body)
}
