package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takamineyasuyuki/sumi-x-orator/config"
	"github.com/takamineyasuyuki/sumi-x-orator/dispatch"
	"github.com/takamineyasuyuki/sumi-x-orator/menu"
	"github.com/takamineyasuyuki/sumi-x-orator/messages"
	"github.com/takamineyasuyuki/sumi-x-orator/persona"
)

type stubDispatcher struct {
	reply       string
	mentioned   []menu.MenuRow
	turnErr     error
	training    persona.TrainingReply
	trainingErr error
	menuItems   []menu.MenuRow
	menuErr     error
	ratingErr   error

	lastMessage string
	lastRating  int
}

func (d *stubDispatcher) HandleTurn(ctx context.Context, message string, history []persona.Turn, hints persona.Hints) (string, []menu.MenuRow, error) {
	d.lastMessage = message
	if d.turnErr != nil {
		return "", nil, d.turnErr
	}
	return d.reply, d.mentioned, nil
}

func (d *stubDispatcher) HandleTrainingTurn(ctx context.Context, message string, history []persona.Turn) (persona.TrainingReply, error) {
	if d.trainingErr != nil {
		return persona.TrainingReply{}, d.trainingErr
	}
	return d.training, nil
}

func (d *stubDispatcher) ActiveMenu(ctx context.Context) ([]menu.MenuRow, error) {
	if d.menuErr != nil {
		return nil, d.menuErr
	}
	return d.menuItems, nil
}

func (d *stubDispatcher) SubmitRating(ctx context.Context, rating, messageCount int, lang string) error {
	d.lastRating = rating
	return d.ratingErr
}

type stubSynth struct {
	audio []byte
	err   error
}

func (s *stubSynth) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

func memoryLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  time.Minute,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

func newTestServer(d Dispatcher, synth *stubSynth) *Server {
	cfg := &config.Config{
		Port:           8080,
		AllowedOrigins: []string{"*"},
	}
	components := Components{Sheets: true, AI: true, Training: true, TTS: synth != nil}
	var s *Server
	if synth != nil {
		s = New(cfg, d, synth, memoryLimiter(100), components)
	} else {
		s = New(cfg, d, nil, memoryLimiter(100), components)
	}
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandleChat(t *testing.T) {
	d := &stubDispatcher{
		reply:     "唐揚げがおすすめです！",
		mentioned: []menu.MenuRow{{Name: "Karaage", Price: 8.5, Active: true}},
	}
	s := newTestServer(d, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", `{"message":"おすすめは？","lang":"ja"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[messages.ChatResponse](t, rec)
	assert.Equal(t, d.reply, resp.Reply)
	require.Len(t, resp.MenuItems, 1)
	assert.Equal(t, "Karaage", resp.MenuItems[0].Name)
	assert.Equal(t, "おすすめは？", d.lastMessage)
}

func TestHandleChatEmptyMessage(t *testing.T) {
	s := newTestServer(&stubDispatcher{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", `{"message":"   "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeBody[messages.ErrorResponse](t, rec)
	assert.Equal(t, messages.ErrCodeInvalidMessage, errResp.Code)
}

func TestHandleChatMalformedBody(t *testing.T) {
	s := newTestServer(&stubDispatcher{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", `{"message":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleChatUnavailable(t *testing.T) {
	s := newTestServer(&stubDispatcher{turnErr: dispatch.ErrServiceUnavailable}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	errResp := decodeBody[messages.ErrorResponse](t, rec)
	assert.Equal(t, messages.ErrCodeServiceUnavailable, errResp.Code)
}

func TestHandleChatNoMentions(t *testing.T) {
	s := newTestServer(&stubDispatcher{reply: "こんにちは"}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	// menu_items serializes to an empty array, never null.
	assert.Contains(t, rec.Body.String(), `"menu_items":[]`)
}

func TestHandleTrain(t *testing.T) {
	d := &stubDispatcher{training: persona.TrainingReply{
		CustomerReply:   "Hi, table for two please!",
		FeedbackToStaff: "Nice greeting.",
	}}
	s := newTestServer(d, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/chat/train", `{"message":"Welcome in!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[messages.TrainingResponse](t, rec)
	assert.Equal(t, "Hi, table for two please!", resp.CustomerReply)
	assert.Equal(t, "Nice greeting.", resp.FeedbackToStaff)
}

func TestHandleMenu(t *testing.T) {
	d := &stubDispatcher{menuItems: []menu.MenuRow{{Name: "Karaage", Active: true}}}
	s := newTestServer(d, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/menu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[messages.MenuResponse](t, rec)
	require.Len(t, resp.Items, 1)

	d.menuErr = dispatch.ErrServiceUnavailable
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(t, s, http.MethodGet, "/api/menu", "").Code)

	d.menuErr = menu.ErrUpstreamUnavailable
	assert.Equal(t, http.StatusBadGateway, doJSON(t, s, http.MethodGet, "/api/menu", "").Code)
}

func TestHandleRating(t *testing.T) {
	d := &stubDispatcher{}
	s := newTestServer(d, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/rating", `{"rating":4,"message_count":6,"lang":"en"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, d.lastRating)

	d.ratingErr = menu.ErrInvalidRating
	rec = doJSON(t, s, http.MethodPost, "/api/rating", `{"rating":6}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decodeBody[messages.ErrorResponse](t, rec)
	assert.Equal(t, messages.ErrCodeInvalidRating, errResp.Code)

	d.ratingErr = errors.New("append failed")
	assert.Equal(t, http.StatusBadGateway, doJSON(t, s, http.MethodPost, "/api/rating", `{"rating":4}`).Code)
}

func TestHandleTTS(t *testing.T) {
	s := newTestServer(&stubDispatcher{}, &stubSynth{audio: []byte("mp3-bytes")})

	rec := doJSON(t, s, http.MethodPost, "/api/tts", `{"text":"いらっしゃいませ","lang":"ja"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-bytes", rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/tts", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTTSNotInitialized(t *testing.T) {
	s := newTestServer(&stubDispatcher{}, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/tts", `{"text":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(&stubDispatcher{}, nil)

	rec := doJSON(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[messages.StatusResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Sheets)
	assert.True(t, resp.AI)
	assert.False(t, resp.TTS)
}

func TestChatRateLimited(t *testing.T) {
	cfg := &config.Config{Port: 8080, AllowedOrigins: []string{"*"}}
	s := New(cfg, &stubDispatcher{reply: "ok"}, nil, memoryLimiter(2), Components{})

	for range 2 {
		assert.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/chat", `{"message":"hi"}`).Code)
	}
	rec := doJSON(t, s, http.MethodPost, "/api/chat", `{"message":"hi"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	errResp := decodeBody[messages.ErrorResponse](t, rec)
	assert.Equal(t, messages.ErrCodeRateLimited, errResp.Code)

	// Unlimited endpoints stay reachable.
	assert.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/health", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(&stubDispatcher{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
