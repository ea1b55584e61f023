package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// RateLimitMiddleware creates a new rate limiting middleware.
// Authenticated requests are limited per account, anonymous ones per client IP.
func RateLimitMiddleware(rateLimiter service.RateLimitService, cfg *config.RateLimitConfig, metrics service.Metrics, log logger.Logger) gin.HandlerFunc {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		scope := constants.RateLimitScopeIP
		identifier := c.ClientIP()
		if account, ok := AccountFrom(c); ok {
			scope = constants.RateLimitScopeUser
			identifier = account.UserID
		}

		allowed, remaining, resetAt, err := rateLimiter.Allow(c.Request.Context(), scope, identifier)
		if err != nil {
			log.Error(c.Request.Context(), "rate limiter failed", err)
			c.Next() // Fail open
			return
		}

		c.Header(constants.HeaderRateLimitLimit, strconv.Itoa(cfg.RequestsPerMinute))
		c.Header(constants.HeaderRateLimitLeft, strconv.Itoa(remaining))

		if !allowed {
			retryAfter := int(math.Ceil(time.Until(resetAt).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header(constants.HeaderRetryAfter, strconv.Itoa(retryAfter))
			metrics.RecordRateLimitHit(string(scope))
			log.Warn(c.Request.Context(), "rate limit exceeded",
				logger.String("scope", string(scope)),
				logger.String("identifier", identifier),
				logger.Int("limit", cfg.RequestsPerMinute))
			AbortWithError(c, errors.ErrRateLimitExceeded(string(scope), cfg.RequestsPerMinute))
			return
		}

		c.Next()
	}
}
