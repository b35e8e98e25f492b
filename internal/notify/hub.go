// Package notify pushes async-job completion events to connected
// clients over WebSocket, so the UI does not have to poll job status.
package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vocalis-app/vocalis/domain/entities"
)

// JobEvent is the wire message published when an async job resolves.
type JobEvent struct {
	Type      string    `json:"type"`
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks WebSocket connections per user and fans job events out to
// them. Losing a client is harmless; job state stays queryable over the
// REST surface.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub creates a new notification hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // auth happens before the upgrade
			},
		},
		logger: logger,
	}
}

// NotifyJob implements usecase.JobNotifier
func (h *Hub) NotifyJob(userID, providerJobID string, status entities.JobStatus) {
	event := JobEvent{
		Type:      "job_update",
		JobID:     providerJobID,
		Status:    string(status),
		Timestamp: time.Now(),
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients[userID]))
	for conn := range h.clients[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Warn("Failed to push job event, dropping client",
				zap.String("user_id", userID),
				zap.Error(err))
			h.unregister(userID, conn)
			conn.Close()
		}
	}

	h.logger.Info("Job event published",
		zap.String("user_id", userID),
		zap.String("job_id", providerJobID),
		zap.String("status", string(status)),
		zap.Int("clients", len(conns)))
}

// Serve upgrades the request and keeps the connection registered until
// the client goes away. The server never reads meaningful data; the
// read loop only detects disconnects.
func (h *Hub) Serve(c echo.Context, userID string) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	h.register(userID, conn)
	h.logger.Info("Notification client connected", zap.String("user_id", userID))

	defer func() {
		h.unregister(userID, conn)
		conn.Close()
		h.logger.Info("Notification client disconnected", zap.String("user_id", userID))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (h *Hub) register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*websocket.Conn]bool)
	}
	h.clients[userID][conn] = true
}

func (h *Hub) unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], conn)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// ClientCount reports connected clients for a user.
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
