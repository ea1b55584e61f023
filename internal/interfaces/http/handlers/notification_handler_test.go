package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/internal/infrastructure/notify"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/logger"
)

func TestNotificationHandler_Connect(t *testing.T) {
	hub := notify.NewHub(config.NotifyConfig{}, nil, logger.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	h := NewNotificationHandler(hub, logger.NewNoopLogger())
	engine, authed := newEngine()
	authed.GET("/notifications/ws", h.Connect)
	server := httptest.NewServer(engine)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/notifications/ws?deviceId=phone"

	t.Run("rejects a handshake without a token", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("delivers notifications for the token's account", func(t *testing.T) {
		header := http.Header{}
		header.Set("Authorization", bearer(t, testUserID, testEmail))
		conn, _, err := websocket.DefaultDialer.Dial(url, header)
		require.NoError(t, err)
		defer conn.Close()

		require.Eventually(t, func() bool { return hub.Connections(testEmail) == 1 }, time.Second, 5*time.Millisecond)
		hub.Notify(context.Background(), testEmail, service.Notification{
			Type:    constants.NotificationAuthRequest,
			Payload: map[string]string{"id": "req-1"},
		})

		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg notify.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, constants.NotificationAuthRequest, msg.Type)
		assert.JSONEq(t, `{"id":"req-1"}`, string(msg.Payload))
	})

	t.Run("accepts the token as a query parameter", func(t *testing.T) {
		token := strings.TrimPrefix(bearer(t, testUserID, testEmail), "Bearer ")
		conn, _, err := websocket.DefaultDialer.Dial(url+"&access_token="+token, nil)
		require.NoError(t, err)
		defer conn.Close()
		require.Eventually(t, func() bool { return hub.Connections(testEmail) >= 1 }, time.Second, 5*time.Millisecond)
	})
}
