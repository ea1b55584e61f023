package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/vaultgate/internal/infrastructure/monitoring"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// ObservabilityMiddleware returns a Gin middleware that integrates request ids, OpenTelemetry tracing,
// Prometheus metrics and access logging.
// For each HTTP request, it starts a server span named "METHOD /path/template" and records metrics labeled
// with the route template so label cardinality stays bounded.
// ObservabilityMiddleware 返回一个集成了请求 ID、OpenTelemetry 跟踪、Prometheus 指标和访问日志的 Gin 中间件。
func ObservabilityMiddleware(tracing *monitoring.TracingManager, metrics *monitoring.Metrics, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = "not_found" // Handle cases where no route matches.
		}
		method := c.Request.Method

		requestID := c.GetHeader(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(constants.HeaderRequestID, requestID)

		ctx := tracing.ExtractTraceContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracing.StartSpan(ctx, method+" "+path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		traceID := tracing.GetTraceID(ctx)
		if traceID == "" {
			traceID = requestID
		}
		ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.ContextKeyTraceID, traceID)
		c.Request = c.Request.WithContext(ctx)

		if metrics != nil {
			metrics.ActiveRequestsInc(path, method)
			defer metrics.ActiveRequestsDec(path, method)
		}

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start)
		if metrics != nil {
			metrics.ObserveRequest(path, method, status, duration)
		}

		span.SetAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", path),
			attribute.Int("http.status_code", status),
			attribute.String("http.client_ip", c.ClientIP()),
		)

		fields := logger.Fields{
			"method":     method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": duration.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": requestID,
		}
		if status >= 500 {
			err := c.Errors.Last()
			span.SetStatus(codes.Error, "server error")
			if err != nil {
				span.RecordError(err.Err)
				log.Error(ctx, "Request failed", err.Err, fields)
				return
			}
			log.Warn(ctx, "Request failed", fields)
			return
		}
		log.Info(ctx, "Request processed", fields)
	}
}
