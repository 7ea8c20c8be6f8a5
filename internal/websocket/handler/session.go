// internal/websocket/handler/session.go
package handler

import (
	"context"

	wstypes "lms-web/internal/domain/websocket"
	ws "lms-web/internal/websocket"
)

// SessionStateHandler answers session:state with the current state.
type SessionStateHandler struct {
	state ws.StateSource
}

func NewSessionStateHandler(state ws.StateSource) *SessionStateHandler {
	return &SessionStateHandler{state: state}
}

func (h *SessionStateHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{wstypes.EventTypeSessionState}
}

func (h *SessionStateHandler) HandleMessage(_ context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	reply := wstypes.NewMessage(wstypes.EventTypeSessionState, wstypes.SessionEventData{
		Reason: "requested",
		State:  h.state.State(),
	})
	if msg.ID != "" {
		reply.ID = msg.ID
	}
	client.SendMessage(reply)
	return nil
}
