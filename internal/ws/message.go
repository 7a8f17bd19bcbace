package ws

import "encoding/json"

// Message represents a WebSocket message with type-based routing.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - Session
const (
	TypeHello       = "hello"
	TypeStart       = "start"
	TypeRestart     = "restart"
	TypeResize      = "resize"
	TypeSessionInfo = "session_info"
)

// Message types - Pointer
const (
	TypePointerEngage  = "pointer_engage"
	TypePointerMove    = "pointer_move"
	TypePointerRelease = "pointer_release"
)

// Message types - Gameplay
const (
	TypeGameOver = "game_over"
)

// Message types - Admin
const (
	TypeAdminForceWin  = "admin_force_win"
	TypeAdminForceLose = "admin_force_lose"
	TypeAdminSpawn     = "admin_spawn"
)

// Message types - System
const (
	TypeError = "error"
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Message string `json:"message"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}
