package messages

import (
	"github.com/takamineyasuyuki/sumi-x-orator/menu"
)

// Error codes
const (
	ErrCodeInvalidMessage     = "INVALID_MESSAGE"
	ErrCodeInvalidRating      = "INVALID_RATING"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamError      = "UPSTREAM_ERROR"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeSessionFailed      = "SESSION_FAILED"
)

// ChatMessage is one history entry supplied by the client. The server
// holds no session store; the client replays its own history per turn.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat and /api/chat/train.
type ChatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
	Lang    string        `json:"lang,omitempty"`   // detected customer language hint
	Energy  string        `json:"energy,omitempty"` // room energy hint
	Speak   bool          `json:"speak,omitempty"`  // websocket only: also return reply audio
}

// ChatResponse carries the reply and the active menu items it mentioned,
// which the UI renders as menu cards.
type ChatResponse struct {
	Reply     string         `json:"reply"`
	MenuItems []menu.MenuRow `json:"menu_items"`
}

// TrainingResponse is the structured training-mode reply.
type TrainingResponse struct {
	CustomerReply   string `json:"customer_reply"`
	FeedbackToStaff string `json:"feedback_to_staff"`
}

// MenuResponse is the body of GET /api/menu.
type MenuResponse struct {
	Items []menu.MenuRow `json:"items"`
}

// RatingRequest is the body of POST /api/rating.
type RatingRequest struct {
	Rating       int    `json:"rating"`
	MessageCount int    `json:"message_count"`
	Lang         string `json:"lang"`
}

// TTSRequest is the body of POST /api/tts.
type TTSRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

// ErrorResponse is the structured error body for non-chat endpoints.
// The chat path never returns it for generation failures; those become
// an in-persona apology instead.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusResponse is the body of GET /health and GET /.
type StatusResponse struct {
	App      string `json:"app,omitempty"`
	Status   string `json:"status"`
	Sheets   bool   `json:"sheets"`
	AI       bool   `json:"ai"`
	Training bool   `json:"training"`
	TTS      bool   `json:"tts"`
}
