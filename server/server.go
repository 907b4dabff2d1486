package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/takamineyasuyuki/sumi-x-orator/config"
	"github.com/takamineyasuyuki/sumi-x-orator/menu"
	"github.com/takamineyasuyuki/sumi-x-orator/persona"
	"github.com/takamineyasuyuki/sumi-x-orator/tts"
)

// Dispatcher is the turn orchestrator the transport layer drives.
type Dispatcher interface {
	HandleTurn(ctx context.Context, message string, history []persona.Turn, hints persona.Hints) (string, []menu.MenuRow, error)
	HandleTrainingTurn(ctx context.Context, message string, history []persona.Turn) (persona.TrainingReply, error)
	ActiveMenu(ctx context.Context) ([]menu.MenuRow, error)
	SubmitRating(ctx context.Context, rating, messageCount int, lang string) error
}

// Components records which collaborators initialized at process start,
// for the health endpoint.
type Components struct {
	Sheets   bool
	AI       bool
	Training bool
	TTS      bool
}

type Server struct {
	httpServer *http.Server
	config     *config.Config
	dispatcher Dispatcher
	synth      tts.Synthesizer
	limiter    *RateLimiter
	upgrader   websocket.Upgrader
	components Components
}

// New builds the HTTP server and wires all routes.
func New(cfg *config.Config, d Dispatcher, synth tts.Synthesizer, limiter *RateLimiter, components Components) *Server {
	s := &Server{
		config:     cfg,
		dispatcher: d,
		synth:      synth,
		limiter:    limiter,
		components: components,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range cfg.AllowedOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(api chi.Router) {
		api.Get("/menu", s.handleMenu)
		api.Post("/rating", s.handleRating)
		api.Post("/tts", s.handleTTS)

		// Generation endpoints carry the paid upstream call, so only
		// they sit behind the rate limiter.
		api.Group(func(chat chi.Router) {
			chat.Use(s.limiter.Middleware)
			chat.Post("/chat", s.handleChat)
			chat.Post("/chat/train", s.handleTrain)
		})
	})

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// Generation turns can take a while; keep the write window wide.
		WriteTimeout: 60 * time.Second,
	}

	return s
}

// Start begins listening for connections
func (s *Server) Start() error {
	log.Printf("🚀 API server starting on port %d", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("🛑 Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}

// cors applies the configured origin allowlist to every response.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range s.config.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				if allowed == "*" {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				break
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
