// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"lms-web/internal/domain/auth"

	"github.com/oklog/ulid/v2"
)

// EventType names a message on the session stream.
type EventType string

const (
	// Connection events
	EventTypePing      EventType = "ping"
	EventTypePong      EventType = "pong"
	EventTypeConnected EventType = "connected"
	EventTypeError     EventType = "error"

	// Session events (server -> client)
	EventTypeSessionAuthenticated EventType = "session:authenticated"
	EventTypeSessionEnded         EventType = "session:ended"

	// Client asks for the current state
	EventTypeSessionState EventType = "session:state"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id,omitempty"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SessionEventData carries a session transition. Credentials are never sent.
type SessionEventData struct {
	Reason string            `json:"reason"`
	State  auth.SessionState `json:"state"`
}

func NewMessage(eventType EventType, data any) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
		ID:        ulid.Make().String(),
	}
}

// SessionMessage picks the event type for a transition.
func SessionMessage(reason string, state auth.SessionState) *WSMessage {
	eventType := EventTypeSessionEnded
	if state.IsAuthenticated {
		eventType = EventTypeSessionAuthenticated
	}
	return NewMessage(eventType, SessionEventData{Reason: reason, State: state})
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
