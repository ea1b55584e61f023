package handlers

import (
	"github.com/gin-gonic/gin"

	appservice "github.com/turtacn/vaultgate/internal/application/service"
	"github.com/turtacn/vaultgate/internal/interfaces/http/middleware"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// respondError writes the error envelope and logs server-side failures.
func respondError(c *gin.Context, log logger.Logger, err error) {
	if errors.ShouldLogError(err) {
		log.Error(c.Request.Context(), "Request failed", err, logger.String("path", c.FullPath()))
	}
	middleware.AbortWithError(c, err)
}

// bindJSON decodes the request body, answering invalid_request on malformed input.
func bindJSON(c *gin.Context, log logger.Logger, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, log, errors.ErrInvalidRequest("malformed request body").WithCause(err))
		return false
	}
	return true
}

// requireAccount returns the authenticated account or answers 401.
func requireAccount(c *gin.Context, log logger.Logger) (appservice.Account, bool) {
	account, ok := middleware.AccountFrom(c)
	if !ok {
		respondError(c, log, errors.ErrUnauthorized("authentication required"))
	}
	return account, ok
}
