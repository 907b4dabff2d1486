package server

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/takamineyasuyuki/sumi-x-orator/messages"
	"github.com/takamineyasuyuki/sumi-x-orator/persona"
)

const (
	wsWriteBuffer  = 64
	wsWriteTimeout = 10 * time.Second
	wsReadLimit    = 256 * 1024
)

// wsSession is one websocket chat connection. Writes go through a
// buffered channel and a single write pump so reply, audio, and status
// frames never interleave mid-write.
type wsSession struct {
	id   string
	conn *websocket.Conn

	writeChan chan *messages.ServerMessage
	closeOnce sync.Once
	closeChan chan struct{}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	session := &wsSession{
		id:        uuid.New().String(),
		conn:      conn,
		writeChan: make(chan *messages.ServerMessage, wsWriteBuffer),
		closeChan: make(chan struct{}),
	}
	conn.SetReadLimit(wsReadLimit)

	log.Printf("✅ New chat session: %s", session.id)
	go session.writePump()
	session.queue(messages.NewStatusMessage(session.id, "connected", "Session established"))

	s.readLoop(r.Context(), session)

	session.close()
	log.Printf("🔌 Chat session closed: %s", session.id)
}

func (s *Server) readLoop(ctx context.Context, session *wsSession) {
	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg messages.ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			session.queue(messages.NewErrorMessage(session.id, messages.ErrCodeInvalidMessage, "malformed message"))
			continue
		}

		switch msg.Type {
		case messages.TypeChat:
			s.handleChatFrame(ctx, session, msg.Payload)
		case "control":
			var ctrl messages.ControlPayload
			if err := sonic.Unmarshal(msg.Payload, &ctrl); err == nil && ctrl.Action == "ping" {
				session.queue(messages.NewStatusMessage(session.id, "pong", ""))
			}
		default:
			session.queue(messages.NewErrorMessage(session.id, messages.ErrCodeInvalidMessage, "unknown message type"))
		}
	}
}

func (s *Server) handleChatFrame(ctx context.Context, session *wsSession, payload []byte) {
	var req messages.ChatRequest
	if err := sonic.Unmarshal(payload, &req); err != nil {
		session.queue(messages.NewErrorMessage(session.id, messages.ErrCodeInvalidMessage, "malformed chat payload"))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		session.queue(messages.NewErrorMessage(session.id, messages.ErrCodeInvalidMessage, "message must not be empty"))
		return
	}

	reply, mentioned, err := s.dispatcher.HandleTurn(ctx, req.Message,
		toTurns(req.History), persona.Hints{Language: req.Lang, Energy: req.Energy})
	if err != nil {
		session.queue(messages.NewErrorMessage(session.id, messages.ErrCodeServiceUnavailable, "AI not initialized"))
		return
	}

	refs := make([]messages.MenuItemsRef, 0, len(mentioned))
	for _, item := range mentioned {
		refs = append(refs, messages.MenuItemsRef{Name: item.Name, Price: item.Price})
	}
	session.queue(messages.NewTextMessage(session.id, reply, refs))

	if req.Speak && s.synth != nil {
		audio, err := s.synth.Synthesize(ctx, reply, req.Lang)
		if err != nil {
			log.Printf("⚠️ [%s] TTS synthesis failed: %v", session.id[:8], err)
		} else {
			session.queue(messages.NewAudioMessage(session.id, base64.StdEncoding.EncodeToString(audio)))
		}
	}

	session.queue(messages.NewStatusMessage(session.id, "turn_complete", ""))
}

func (ws *wsSession) writePump() {
	for {
		select {
		case msg := <-ws.writeChan:
			data, err := sonic.Marshal(msg)
			if err != nil {
				log.Printf("❌ [%s] Marshal failed: %v", ws.id[:8], err)
				continue
			}
			_ = ws.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := ws.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				ws.close()
				return
			}
		case <-ws.closeChan:
			return
		}
	}
}

func (ws *wsSession) queue(msg *messages.ServerMessage) {
	select {
	case ws.writeChan <- msg:
	case <-ws.closeChan:
	default:
		log.Printf("⚠️ [%s] Write buffer full, dropping message", ws.id[:8])
	}
}

func (ws *wsSession) close() {
	ws.closeOnce.Do(func() {
		close(ws.closeChan)
		_ = ws.conn.Close()
	})
}
