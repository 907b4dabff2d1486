package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/takamineyasuyuki/sumi-x-orator/dispatch"
	"github.com/takamineyasuyuki/sumi-x-orator/menu"
	"github.com/takamineyasuyuki/sumi-x-orator/messages"
	"github.com/takamineyasuyuki/sumi-x-orator/persona"
)

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req messages.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "message must not be empty")
		return
	}

	reply, mentioned, err := s.dispatcher.HandleTurn(r.Context(), req.Message,
		toTurns(req.History), persona.Hints{Language: req.Lang, Energy: req.Energy})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, messages.ErrCodeServiceUnavailable, "AI not initialized")
		return
	}

	if mentioned == nil {
		mentioned = []menu.MenuRow{}
	}
	writeJSON(w, http.StatusOK, messages.ChatResponse{Reply: reply, MenuItems: mentioned})
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req messages.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "message must not be empty")
		return
	}

	reply, err := s.dispatcher.HandleTrainingTurn(r.Context(), req.Message, toTurns(req.History))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, messages.ErrCodeServiceUnavailable, "training AI not initialized")
		return
	}

	writeJSON(w, http.StatusOK, messages.TrainingResponse{
		CustomerReply:   reply.CustomerReply,
		FeedbackToStaff: reply.FeedbackToStaff,
	})
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := s.dispatcher.ActiveMenu(r.Context())
	switch {
	case errors.Is(err, dispatch.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, messages.ErrCodeServiceUnavailable, "database not connected")
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, messages.ErrCodeUpstreamError, "menu data unavailable")
		return
	}

	if items == nil {
		items = []menu.MenuRow{}
	}
	writeJSON(w, http.StatusOK, messages.MenuResponse{Items: items})
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	var req messages.RatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.dispatcher.SubmitRating(r.Context(), req.Rating, req.MessageCount, req.Lang)
	switch {
	case errors.Is(err, menu.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidRating, "rating must be between 1 and 5")
	case errors.Is(err, dispatch.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, messages.ErrCodeServiceUnavailable, "database not connected")
	case err != nil:
		log.Printf("⚠️ Rating write failed: %v", err)
		writeError(w, http.StatusBadGateway, messages.ErrCodeUpstreamError, "rating could not be saved")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	if s.synth == nil {
		writeError(w, http.StatusServiceUnavailable, messages.ErrCodeServiceUnavailable, "TTS not initialized")
		return
	}

	var req messages.TTSRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "text must not be empty")
		return
	}

	audio, err := s.synth.Synthesize(r.Context(), req.Text, req.Lang)
	if err != nil {
		log.Printf("⚠️ TTS synthesis failed: %v", err)
		writeError(w, http.StatusBadGateway, messages.ErrCodeUpstreamError, "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(audio)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messages.StatusResponse{
		Status:   "ok",
		Sheets:   s.components.Sheets,
		AI:       s.components.AI,
		Training: s.components.Training,
		TTS:      s.components.TTS,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":    "SUMI X Orator",
		"status": "running",
	})
}

func toTurns(history []messages.ChatMessage) []persona.Turn {
	turns := make([]persona.Turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, persona.Turn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// decodeJSON reads and decodes the request body, writing a client error
// and returning false when the payload is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "unreadable request body")
		return false
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, messages.ErrCodeInvalidMessage, "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := sonic.Marshal(v)
	if err != nil {
		log.Printf("❌ Response marshal failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, messages.ErrorResponse{Code: code, Message: message})
}
