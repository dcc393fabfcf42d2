package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kgexplorer/application/services"
	apperrors "kgexplorer/pkg/errors"
)

// Sessions resolves the session a client subscribes to
type Sessions interface {
	Get(id string) (*services.Orchestrator, error)
}

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

// Server upgrades session event subscriptions
type Server struct {
	hub      *Hub
	sessions Sessions
	upgrader websocket.Upgrader
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewServer creates a new WebSocket server
func NewServer(hub *Hub, sessions Sessions, config *ServerConfig, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	return &Server{
		hub:      hub,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		errors: errorHandler,
		logger: logger,
	}
}

// HandleEvents upgrades GET /sessions/{sessionID}/events. The first frame is the
// session snapshot so the client can render before the next event arrives.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	orchestrator, err := s.sessions.Get(sessionID)
	if err != nil {
		s.errors.Handle(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Failed to upgrade connection",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		return
	}

	snapshot, err := json.Marshal(orchestrator.Snapshot())
	if err != nil {
		s.logger.Error("Failed to marshal session snapshot", zap.Error(err))
		snapshot = nil
	}
	var greeting []byte
	if snapshot != nil {
		greeting, _ = json.Marshal(Message{
			Type:       "session.snapshot",
			SessionID:  sessionID,
			Generation: orchestrator.Generation(),
			Timestamp:  time.Now().UnixMilli(),
			Data:       snapshot,
		})
	}

	client := NewClient(sessionID, s.hub, conn, s.logger)
	client.Start(greeting)

	s.logger.Info("WebSocket connection established",
		zap.String("sessionId", sessionID),
		zap.String("connectionId", client.GetID()),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *Hub {
	return s.hub
}
