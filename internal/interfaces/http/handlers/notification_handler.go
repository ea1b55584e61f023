package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vaultgate/pkg/logger"
)

// SocketServer upgrades a request into an account's notification session.
type SocketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, email, deviceID string) error
}

// NotificationHandler serves the push notification socket used by approving devices.
type NotificationHandler struct {
	hub    SocketServer
	logger logger.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(hub SocketServer, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{hub: hub, logger: log.WithComponent("notification_handler")}
}

// Connect handles GET /notifications/ws?deviceId=.
func (h *NotificationHandler) Connect(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	// The upgrader has already answered the client when ServeWS fails.
	if err := h.hub.ServeWS(c.Writer, c.Request, account.Email, c.Query("deviceId")); err != nil {
		h.logger.Warn(c.Request.Context(), "Notification socket rejected",
			logger.String("email", account.Email), logger.Error(err))
		c.Abort()
	}
}
