package events

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/observability/metrics"
)

// Hub broadcasts room lifecycle events to websocket subscribers on
// GET /ws/rooms. Events are fire-and-forget: a slow or dead subscriber is
// dropped, never awaited.
type Hub struct {
	mu             sync.Mutex
	clients        map[*websocket.Conn]struct{}
	logger         *slog.Logger
	allowedOrigins []string
}

// NewHub creates an event hub
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:        make(map[*websocket.Conn]struct{}),
		logger:         logger,
		allowedOrigins: allowedOrigins,
	}
}

func (h *Hub) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP upgrades the connection and subscribes it to the feed
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	h.clients[ws] = struct{}{}
	h.mu.Unlock()
	metrics.FeedSubscriberConnected()
	h.logger.Debug("feed subscriber connected", slog.String("remote", ws.RemoteAddr().String()))

	// Drain incoming frames until the peer goes away; the feed is
	// broadcast-only.
	go func() {
		defer h.drop(ws)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish sends the event to every connected subscriber
func (h *Hub) Publish(event domain.RoomEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal room event", slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	var dead []*websocket.Conn
	for ws := range h.clients {
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			dead = append(dead, ws)
		}
	}
	for _, ws := range dead {
		delete(h.clients, ws)
	}
	h.mu.Unlock()

	for _, ws := range dead {
		ws.Close()
		metrics.FeedSubscriberDisconnected()
	}
}

// Close disconnects all subscribers
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for ws := range h.clients {
		conns = append(conns, ws)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, ws := range conns {
		ws.Close()
		metrics.FeedSubscriberDisconnected()
	}
}

func (h *Hub) drop(ws *websocket.Conn) {
	h.mu.Lock()
	_, present := h.clients[ws]
	delete(h.clients, ws)
	h.mu.Unlock()

	ws.Close()
	if present {
		metrics.FeedSubscriberDisconnected()
	}
}
