package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/application/service"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// AuthRequestHandler serves the login approval endpoints.
// Create and GetResponse are called by the device that wants to sign in; the rest by an approving device.
type AuthRequestHandler struct {
	service service.AuthRequestAppService
	logger  logger.Logger
}

// NewAuthRequestHandler creates a new AuthRequestHandler.
func NewAuthRequestHandler(svc service.AuthRequestAppService, log logger.Logger) *AuthRequestHandler {
	return &AuthRequestHandler{
		service: svc,
		logger:  log.WithComponent("auth_request_handler"),
	}
}

// Create handles POST /auth-requests.
func (h *AuthRequestHandler) Create(c *gin.Context) {
	var req dto.CreateAuthRequestRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetResponse handles GET /auth-requests/:id/response?code=.
func (h *AuthRequestHandler) GetResponse(c *gin.Context) {
	resp, err := h.service.GetResponse(c.Request.Context(), c.Param("id"), c.Query("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List handles GET /auth-requests.
func (h *AuthRequestHandler) List(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	resp, err := h.service.ListPending(c.Request.Context(), account.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /auth-requests/:id.
func (h *AuthRequestHandler) Get(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	resp, err := h.service.Get(c.Request.Context(), account.Email, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByFingerprint handles GET /auth-requests/fingerprint/:fingerprint.
func (h *AuthRequestHandler) GetByFingerprint(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	resp, err := h.service.GetByFingerprint(c.Request.Context(), account.Email, c.Param("fingerprint"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update handles PUT /auth-requests/:id, recording the approver's decision.
func (h *AuthRequestHandler) Update(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	var req dto.UpdateAuthRequestRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	resp, err := h.service.Decide(c.Request.Context(), account.Email, c.Param("id"), &req, c.ClientIP())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
