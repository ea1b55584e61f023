package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	appservice "github.com/turtacn/vaultgate/internal/application/service"
	"github.com/turtacn/vaultgate/internal/infrastructure/crypto"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// accountKey is the gin context key holding the authenticated appservice.Account.
const accountKey = "account"

// extractBearer extracts the token from the Authorization header.
func extractBearer(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireJWT is a middleware to protect routes that require a valid JWT.
// The verified account is available to handlers through AccountFrom.
func RequireJWT(jwtManager crypto.JWTManager, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractBearer(c.GetHeader(constants.HeaderAuthorization))
		if tokenStr == "" && websocket.IsWebSocketUpgrade(c.Request) {
			// Browsers cannot set headers on a socket handshake.
			tokenStr = c.Query("access_token")
		}
		if tokenStr == "" {
			AbortWithError(c, errors.ErrUnauthorized("missing bearer token"))
			return
		}

		claims, err := jwtManager.VerifyJWT(c.Request.Context(), tokenStr)
		if err != nil {
			log.Warn(c.Request.Context(), "JWT verification failed", logger.Error(err))
			AbortWithError(c, err)
			return
		}

		account := appservice.Account{UserID: claims.Subject, Email: claims.Email}
		c.Set(accountKey, account)

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyUserID, account.UserID)
		ctx = context.WithValue(ctx, constants.ContextKeyEmail, account.Email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AccountFrom returns the account set by RequireJWT.
func AccountFrom(c *gin.Context) (appservice.Account, bool) {
	v, ok := c.Get(accountKey)
	if !ok {
		return appservice.Account{}, false
	}
	account, ok := v.(appservice.Account)
	return account, ok
}
