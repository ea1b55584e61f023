package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// HeaderIdempotencyKey carries a client-chosen key that makes a POST safe to retry.
const HeaderIdempotencyKey = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// IdempotencyMiddleware rejects a repeated POST that carries an Idempotency-Key already seen for the same caller.
// Requests without the header pass through. The key is claimed with SETNX and released again when the
// handler fails, so a client can retry after a 4xx or 5xx.
func IdempotencyMiddleware(redisClient redis.UniversalClient, cfg *config.IdempotencyConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			AbortWithError(c, errors.ErrInvalidRequest("Idempotency-Key is too long"))
			return
		}

		caller := c.ClientIP()
		if account, ok := AccountFrom(c); ok {
			caller = account.UserID
		}
		redisKey := idempotencyRedisKey(caller, c.FullPath(), key)

		ctx := c.Request.Context()
		isNew, err := redisClient.SetNX(ctx, redisKey, c.Request.URL.Path, cfg.TTL).Result()
		if err != nil {
			log.Error(ctx, "Redis check for idempotency key failed", err)
			c.Next() // Fail open: If Redis is down, we allow the request to proceed.
			return
		}

		if !isNew {
			log.Warn(ctx, "Duplicate request rejected", logger.String("path", c.FullPath()))
			AbortWithError(c, errors.ErrConflict("this request has already been processed").
				WithMetadata("idempotency_key", key))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := redisClient.Del(ctx, redisKey).Err(); err != nil {
				log.Warn(ctx, "Failed to release idempotency key", logger.Error(err))
			}
		}
	}
}

func idempotencyRedisKey(caller, route, key string) string {
	sum := sha256.Sum256([]byte(caller + "\x00" + route + "\x00" + key))
	return "idempotency:" + hex.EncodeToString(sum[:])
}
