// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"lms-web/internal/domain/auth"
	wstypes "lms-web/internal/domain/websocket"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// StateSource supplies the state sent to a freshly connected client.
type StateSource interface {
	State() auth.SessionState
}

// Hub fans session transitions out to every connected client.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *wstypes.WSMessage
	done       chan struct{}

	handlers *HandlerRegistry
	state    StateSource
	logger   *zap.Logger
}

func NewHub(state StateSource, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *wstypes.WSMessage, 64),
		done:       make(chan struct{}),
		handlers:   NewHandlerRegistry(),
		state:      state,
		logger:     logger,
	}
}

// RegisterHandler registers a message handler
func (h *Hub) RegisterHandler(handler MessageHandler) {
	h.handlers.Register(handler)
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

// Connect adopts an upgraded connection and starts its pumps.
func (h *Hub) Connect(conn *websocket.Conn) error {
	client := newClient(h, conn)

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return ErrHubClosed
	}

	go client.WritePump()
	go client.ReadPump()
	return nil
}

// Publish queues a session transition for broadcast. It never blocks;
// when the queue is full the transition is dropped and clients catch up
// on their next session:state request.
func (h *Hub) Publish(reason string, state auth.SessionState) {
	select {
	case h.broadcast <- wstypes.SessionMessage(reason, state):
	default:
		h.logger.Warn("session broadcast queue full, dropping transition", zap.String("reason", reason))
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected",
		zap.String("remote", client.remote),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, wstypes.SessionEventData{
		Reason: "connected",
		State:  h.state.State(),
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.Close()

	h.logger.Debug("websocket client disconnected",
		zap.String("remote", client.remote),
		zap.Int("total", len(h.clients)),
	)
}

func (h *Hub) BroadcastMessage(msg *wstypes.WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.SendMessage(msg)
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]bool)
}
