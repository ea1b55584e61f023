package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/application/service"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// CipherHandler serves CRUD for the caller's vault items.
type CipherHandler struct {
	service service.CipherAppService
	logger  logger.Logger
}

// NewCipherHandler creates a new CipherHandler.
func NewCipherHandler(svc service.CipherAppService, log logger.Logger) *CipherHandler {
	return &CipherHandler{
		service: svc,
		logger:  log.WithComponent("cipher_handler"),
	}
}

func (h *CipherHandler) Create(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}
	var req dto.CipherRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	cipher, err := h.service.Create(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cipher)
}

func (h *CipherHandler) List(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	resp, err := h.service.List(c.Request.Context(), account)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CipherHandler) Get(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	cipher, err := h.service.Get(c.Request.Context(), account, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cipher)
}

func (h *CipherHandler) Update(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}
	var req dto.CipherRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	cipher, err := h.service.Update(c.Request.Context(), account, c.Param("id"), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cipher)
}

func (h *CipherHandler) Delete(c *gin.Context) {
	account, ok := requireAccount(c, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), account, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
