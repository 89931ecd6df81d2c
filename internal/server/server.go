// Package server assembles the relay: directory, protocol handler, hub and
// WebSocket upgrader.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/protocol"
	"github.com/Tyrowin/roomrelay/internal/rooms"
)

// Server is one relay instance.
type Server struct {
	cfg      Config
	log      *slog.Logger
	dir      *rooms.Directory
	handler  *protocol.Handler
	hub      *Hub
	upgrader websocket.Upgrader
}

// New builds a relay from cfg. Unset fields take their defaults.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir := rooms.NewDirectory(log,
		rooms.WithCapacity(cfg.RoomCapacity),
		rooms.WithStrict(cfg.StrictInvariants),
	)
	handler := protocol.NewHandler(log, dir)
	origins := newOriginPolicy(cfg.AllowedOrigins, log)

	return &Server{
		cfg:     cfg,
		log:     log,
		dir:     dir,
		handler: handler,
		hub:     NewHub(handler, log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
	}, nil
}

// Start runs the hub in its own goroutine. Call it before serving requests.
func (s *Server) Start() {
	go s.hub.Run()
	s.log.Info("Hub started and ready to manage WebSocket connections")
}

// Shutdown stops accepting HTTP requests, then closes every WebSocket
// connection so that each participant leaves its room.
func (s *Server) Shutdown(httpServer *http.Server, timeout time.Duration) error {
	var errs []error
	if httpServer != nil {
		errs = append(errs, ShutdownServer(httpServer, timeout, s.log))
	}
	errs = append(errs, s.hub.Shutdown(timeout))
	return errors.Join(errs...)
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Rooms() *rooms.Directory { return s.dir }

func (s *Server) Stats() protocol.Stats { return s.handler.Stats() }

func (s *Server) Config() Config { return s.cfg }
