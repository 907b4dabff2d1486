package messages

import "encoding/json"

// WebSocket message types
const (
	TypeChat   = "chat"
	TypeText   = "text"
	TypeAudio  = "audio"
	TypeStatus = "status"
	TypeError  = "error"
)

// ClientMessage represents a message from a websocket client
type ClientMessage struct {
	Type    string          `json:"type"` // "chat", "control"
	Payload json.RawMessage `json:"payload"`
}

// ControlPayload contains control commands
type ControlPayload struct {
	Action string `json:"action"` // "ping"
}

// ServerMessage represents a message sent to a websocket client
type ServerMessage struct {
	Type      string      `json:"type"` // "text", "audio", "status", "error"
	SessionID string      `json:"sessionId,omitempty"`
	Payload   interface{} `json:"payload"`
}

// TextPayload carries a reply chunk plus the mentioned menu items.
type TextPayload struct {
	Text      string         `json:"text"`
	MenuItems []MenuItemsRef `json:"menu_items,omitempty"`
}

// MenuItemsRef is the subset of a menu row the chat UI needs for cards.
type MenuItemsRef struct {
	Name  string  `json:"name"`
	Price float64 `json:"price,omitempty"`
}

// AudioPayload contains synthesized reply audio for client playback
type AudioPayload struct {
	Data     string `json:"data"`     // Base64-encoded MP3
	MimeType string `json:"mimeType"` // "audio/mpeg"
}

// StatusPayload contains status updates
type StatusPayload struct {
	Status  string `json:"status"` // "connected", "turn_complete", "pong"
	Message string `json:"message,omitempty"`
}

// NewTextMessage creates a text reply message
func NewTextMessage(sessionID, text string, items []MenuItemsRef) *ServerMessage {
	return &ServerMessage{
		Type:      TypeText,
		SessionID: sessionID,
		Payload:   TextPayload{Text: text, MenuItems: items},
	}
}

// NewAudioMessage creates an audio reply message
func NewAudioMessage(sessionID, data string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeAudio,
		SessionID: sessionID,
		Payload:   AudioPayload{Data: data, MimeType: "audio/mpeg"},
	}
}

// NewStatusMessage creates a status message
func NewStatusMessage(sessionID, status, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeStatus,
		SessionID: sessionID,
		Payload:   StatusPayload{Status: status, Message: message},
	}
}

// NewErrorMessage creates an error message
func NewErrorMessage(sessionID, code, message string) *ServerMessage {
	return &ServerMessage{
		Type:      TypeError,
		SessionID: sessionID,
		Payload:   ErrorResponse{Code: code, Message: message},
	}
}
