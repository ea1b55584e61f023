// Package notify pushes notifications to an account's connected devices over WebSockets.
package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// Message is the frame written to a socket.
type Message struct {
	Type      constants.NotificationType `json:"type"`
	Timestamp time.Time                  `json:"timestamp"`
	Payload   json.RawMessage            `json:"payload,omitempty"`
}

// clientGauge is implemented by metrics backends that track open sockets.
type clientGauge interface {
	SetWebsocketClients(n int)
}

// Hub tracks connected clients per account and implements service.Notifier.
type Hub struct {
	clients   map[string]*Client
	userIndex map[string]map[string]struct{}
	mu        sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	maxConnPerUser int
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration

	upgrader websocket.Upgrader
	metrics  service.Metrics
	logger   logger.Logger
}

var _ service.Notifier = (*Hub)(nil)

// NewHub creates a hub. Call Run before registering clients.
func NewHub(cfg config.NotifyConfig, metrics service.Metrics, log logger.Logger) *Hub {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	if cfg.MaxConnPerUser <= 0 {
		cfg.MaxConnPerUser = 5
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	return &Hub{
		clients:        make(map[string]*Client),
		userIndex:      make(map[string]map[string]struct{}),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		maxConnPerUser: cfg.MaxConnPerUser,
		writeWait:      cfg.WriteWait,
		pongWait:       cfg.PongWait,
		pingPeriod:     cfg.PongWait * 9 / 10,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Sessions authenticate with a bearer token, not cookies.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		metrics: metrics,
		logger:  log.WithComponent("notify_hub"),
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(ctx, client)
		case client := <-h.unregister:
			h.unregisterClient(ctx, client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) registerClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.userIndex[client.UserID]) >= h.maxConnPerUser {
		h.logger.Warn(ctx, "Max connections reached for account", logger.String("client_id", client.ID))
		close(client.send)
		return
	}
	if h.userIndex[client.UserID] == nil {
		h.userIndex[client.UserID] = make(map[string]struct{})
	}
	h.clients[client.ID] = client
	h.userIndex[client.UserID][client.ID] = struct{}{}
	h.reportClients()

	h.logger.Debug(ctx, "Client registered",
		logger.String("client_id", client.ID),
		logger.String("device_id", client.DeviceID),
	)
}

func (h *Hub) unregisterClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	delete(h.userIndex[client.UserID], client.ID)
	if len(h.userIndex[client.UserID]) == 0 {
		delete(h.userIndex, client.UserID)
	}
	close(client.send)
	h.reportClients()
	h.logger.Debug(ctx, "Client unregistered", logger.String("client_id", client.ID))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.userIndex = make(map[string]map[string]struct{})
	h.reportClients()
}

// reportClients must be called with the lock held.
func (h *Hub) reportClients() {
	if g, ok := h.metrics.(clientGauge); ok {
		g.SetWebsocketClients(len(h.clients))
	}
}

// Notify delivers n to every connected session of email. Clients whose buffer is full are dropped.
func (h *Hub) Notify(ctx context.Context, email string, n service.Notification) {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		h.logger.Error(ctx, "Failed to encode notification", err, logger.String("type", string(n.Type)))
		return
	}
	frame, err := json.Marshal(Message{Type: n.Type, Timestamp: time.Now().UTC(), Payload: payload})
	if err != nil {
		h.logger.Error(ctx, "Failed to encode notification", err, logger.String("type", string(n.Type)))
		return
	}

	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for clientID := range h.userIndex[normalizeEmail(email)] {
		client := h.clients[clientID]
		select {
		case client.send <- frame:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn(ctx, "Client send buffer full, closing connection", logger.String("client_id", client.ID))
		h.Unregister(client)
	}
	h.metrics.RecordNotification(string(n.Type), delivered)
}

// Register hands a client to the run loop.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client through the run loop.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connections returns the number of open sessions for email.
func (h *Hub) Connections(email string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userIndex[normalizeEmail(email)])
}

// ServeWS upgrades the request and attaches the socket to email's sessions.
// It returns once the connection is handed to its pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, email, deviceID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(uuid.NewString(), normalizeEmail(email), deviceID, conn, h)
	h.Register(client)
	go client.writePump()
	go client.readPump()
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
