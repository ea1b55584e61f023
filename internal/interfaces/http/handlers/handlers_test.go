package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vaultgate/internal/application/dto"
	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/infrastructure/crypto"
	"github.com/turtacn/vaultgate/internal/interfaces/http/middleware"
	"github.com/turtacn/vaultgate/pkg/logger"
)

const (
	testUserID = "6f1c2a7e-2d7b-4c55-9d0e-0a5a3c1f7b10"
	testEmail  = "alice@example.com"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testJWT = crypto.NewJWTManager(crypto.NewStaticKeySource("handler-test-secret"),
	config.JWTConfig{Issuer: "vaultgate", TokenTTL: time.Hour}, logger.NewNoopLogger())

func bearer(t *testing.T, userID, email string) string {
	token, err := testJWT.GenerateJWT(context.Background(), userID, email)
	require.NoError(t, err)
	return "Bearer " + token
}

// newEngine returns a gin engine whose authenticated group verifies tokens from testJWT.
func newEngine() (*gin.Engine, *gin.RouterGroup) {
	engine := gin.New()
	authed := engine.Group("", middleware.RequireJWT(testJWT, logger.NewNoopLogger()))
	return engine, authed
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}, auth string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body dto.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error, w.Body.String())
	return body.Error.Code
}
