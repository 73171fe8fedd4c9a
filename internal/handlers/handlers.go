package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"mentorlink/internal/config"
	"mentorlink/internal/mentorship"
	"mentorlink/internal/messaging"
	"mentorlink/internal/middleware"
	"mentorlink/internal/models"
	"mentorlink/internal/presence"
	"mentorlink/internal/realtime"
	"mentorlink/internal/utils"
	"mentorlink/internal/websocket"

	ws "github.com/gorilla/websocket"
)

// NotificationLister reads an account's notification feed.
type NotificationLister interface {
	ListNotifications(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server routes requests to.
type Deps struct {
	Messaging     *messaging.Service
	Mentorship    *mentorship.Service
	Notifications NotificationLister
	Dispatcher    *realtime.Dispatcher
	Presence      presence.Registry
	Hub           *websocket.Hub
	Store         Pinger
	Metrics       *utils.MetricsCollector
	Logger        *slog.Logger
}

// Server holds all server dependencies
type Server struct {
	Deps

	Tokens         *middleware.TokenValidator
	CORS           *middleware.CORSConfig
	StoreType      string
	MetricsEnabled bool
	RequestTimeout time.Duration

	upgrader ws.Upgrader
}

// NewServer creates a new Server instance with the given components
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With("component", "http")

	s := &Server{
		Deps:           deps,
		Tokens:         middleware.NewTokenValidator(cfg.JWTSecret),
		CORS:           middleware.DefaultCORSConfig(cfg.AllowedOrigins),
		StoreType:      cfg.Database.Type,
		MetricsEnabled: cfg.Server.MetricsEnabled,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = 5 * time.Second // Default timeout for store and actor requests
	}
	s.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.CORS.OriginAllowed(origin)
		},
	}
	return s
}

// requestContext bounds a handler's store and actor calls.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.RequestTimeout)
}
