// internal/websocket/client.go
package websocket

import (
	"context"
	"sync"
	"time"

	wstypes "lms-web/internal/domain/websocket"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 32
)

// Client is one browser tab listening on the session stream.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	remote string

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: conn.RemoteAddr().String(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RemoteAddr returns the peer address.
func (c *Client) RemoteAddr() string {
	return c.remote
}

// ReadPump handles incoming messages from client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read failed", zap.String("remote", c.remote), zap.Error(err))
			}
			return
		}
		c.handleMessage(message)
	}
}

// WritePump handles outgoing messages to client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	msg, err := wstypes.ParseMessage(data)
	if err != nil {
		c.SendError("invalid_message", "Failed to parse message", err.Error())
		return
	}

	if handler, ok := c.hub.handlers.GetHandler(msg.Type); ok {
		if err := handler.HandleMessage(c.ctx, c, msg); err != nil {
			c.SendError("handler_error", "Failed to process message", err.Error())
		}
		return
	}

	switch msg.Type {
	case wstypes.EventTypePing:
		c.SendMessage(wstypes.NewMessage(wstypes.EventTypePong, nil))
	default:
		c.SendError("unsupported_event", "Unsupported event type", string(msg.Type))
	}
}

// SendMessage queues msg. A client that cannot keep up is disconnected.
func (c *Client) SendMessage(msg *wstypes.WSMessage) {
	data, err := msg.ToJSON()
	if err != nil {
		c.hub.logger.Error("failed to marshal message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}

	select {
	case <-c.ctx.Done():
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket client too slow, closing", zap.String("remote", c.remote))
		c.Close()
	}
}

// SendError sends an error message to the client
func (c *Client) SendError(code, message, details string) {
	c.SendMessage(wstypes.NewMessage(wstypes.EventTypeError, wstypes.ErrorData{
		Code:    code,
		Message: message,
		Details: details,
	}))
}

// Close stops the write pump, which closes the connection and in turn
// ends the read pump. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(c.cancel)
}
