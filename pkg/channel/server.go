package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// ErrNoClient is returned by Send when no client application is connected.
var ErrNoClient = errors.New("no client connected")

// Sender pushes a JSON message to the remote client application.
type Sender interface {
	Send(v interface{}) error
}

// Server owns the bidirectional push channel to the remote client
// application. Each session runtime is single-tenant: at most one client
// connection is active, and a newer connection replaces the previous one.
type Server struct {
	port     int
	upgrader websocket.Upgrader
	router   *Router
	logger   zerolog.Logger
	metrics  http.Handler

	server *http.Server

	mu       sync.Mutex
	conn     *websocket.Conn
	connID   string
	writeMu  sync.Mutex
	shutdown bool

	readWG sync.WaitGroup
}

// Config holds push channel server configuration.
type Config struct {
	Port   int
	Router *Router
	Logger zerolog.Logger

	// Metrics, when set, is mounted at /metrics on the same listener.
	Metrics http.Handler
}

// NewServer creates a push channel server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Router == nil {
		return nil, fmt.Errorf("router is required")
	}

	return &Server{
		port:    cfg.Port,
		router:  cfg.Router,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Client app connects from an app webview
			},
		},
	}, nil
}

// Start begins accepting client connections.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: mux,
	}

	s.logger.Info().Int("port", s.port).Msg("Starting push channel server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Push channel server error")
		}
	}()

	return nil
}

// Stop closes the active connection and shuts the server down. It waits for
// the read loop to exit so no handler runs after Stop returns.
func (s *Server) Stop() error {
	s.mu.Lock()
	s.shutdown = true
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	s.readWG.Wait()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	s.logger.Info().Msg("Push channel server stopped")
	return nil
}

// Send marshals v and pushes it to the connected client. Returns ErrNoClient
// when no connection is active.
func (s *Server) Send(v interface{}) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return ErrNoClient
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound message: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write to client: %w", err)
	}
	return nil
}

// Connected reports whether a client connection is active.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.mu.Unlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	connID, _ := gonanoid.New()

	s.mu.Lock()
	previous := s.conn
	s.conn = conn
	s.connID = connID
	s.mu.Unlock()

	if previous != nil {
		s.logger.Warn().Msg("Replacing existing client connection")
		_ = previous.Close()
	}

	s.logger.Info().
		Str("connId", connID).
		Str("ip", r.RemoteAddr).
		Msg("Client connected")

	s.readWG.Add(1)
	go s.readLoop(conn, connID)
}

// readLoop feeds inbound payloads into the router. A payload the router
// can't decode is dropped there; only transport-level read errors end the
// loop.
func (s *Server) readLoop(conn *websocket.Conn, connID string) {
	defer s.readWG.Done()
	defer func() {
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		_ = conn.Close()
		s.logger.Info().Str("connId", connID).Msg("Client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn().Err(err).Str("connId", connID).Msg("Unexpected connection close")
			}
			return
		}
		s.router.HandleRaw(data)
	}
}
