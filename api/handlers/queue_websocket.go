package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/mediavault/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local desktop service, all origins accepted
	},
}

// wsMessage is the envelope pushed to websocket clients
type wsMessage struct {
	Type string      `json:"type"` // "queue" or "progress"
	Data interface{} `json:"data"`
}

// QueueWebSocketHandler streams queue state and extraction progress to
// connected clients. It implements domain.QueueObserver and is
// subscribed to the queue manager at startup.
type QueueWebSocketHandler struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	lastUpd []*domain.Job
}

// NewQueueWebSocketHandler creates a new websocket handler
func NewQueueWebSocketHandler(logger *zap.Logger) *QueueWebSocketHandler {
	return &QueueWebSocketHandler{
		logger:  logger,
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// OnQueueUpdate broadcasts the full job list to every client
func (h *QueueWebSocketHandler) OnQueueUpdate(jobs []*domain.Job) {
	h.mu.Lock()
	h.lastUpd = jobs
	h.mu.Unlock()

	h.broadcast(wsMessage{Type: "queue", Data: jobs})
}

// OnProgress broadcasts a single progress event to every client
func (h *QueueWebSocketHandler) OnProgress(event domain.ProgressEvent) {
	h.broadcast(wsMessage{Type: "progress", Data: event})
}

// HandleWebSocket handles GET /api/v1/queue/ws
func (h *QueueWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	writeMu := &sync.Mutex{}

	h.mu.Lock()
	h.clients[conn] = writeMu
	snapshot := h.lastUpd
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	h.logger.Info("WebSocket client connected",
		zap.String("remote_addr", c.Request.RemoteAddr))

	// New clients get the current queue immediately
	if snapshot != nil {
		if err := h.write(conn, writeMu, wsMessage{Type: "queue", Data: snapshot}); err != nil {
			return
		}
	}

	done := make(chan struct{})

	// Drain client messages so pongs and close frames are processed
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			writeMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			writeMu.Unlock()
			if err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (h *QueueWebSocketHandler) broadcast(msg wsMessage) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, mu := range h.clients {
		conns[conn] = mu
	}
	h.mu.RUnlock()

	for conn, mu := range conns {
		if err := h.write(conn, mu, msg); err != nil {
			h.logger.Debug("Failed to push to WebSocket client", zap.Error(err))
			// The connection's handler goroutine cleans up on its own
		}
	}
}

func (h *QueueWebSocketHandler) write(conn *websocket.Conn, mu *sync.Mutex, msg wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}
