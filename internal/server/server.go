package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorequest/internal/app"
	"github.com/dukerupert/chorequest/internal/handler"
	"github.com/dukerupert/chorequest/internal/middleware"
	ws "github.com/dukerupert/chorequest/internal/websocket"
)

type Config struct {
	TokenTTL  time.Duration
	RateRPS   float64
	RateBurst int
}

type Server struct {
	registry    *app.Registry
	hub         *ws.Hub
	authH       *handler.AuthHandler
	sessionH    *handler.SessionHandler
	householdH  *handler.HouseholdHandler
	taskH       *handler.TaskHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the HTTP surface to registry. Every session the registry adds
// is watched by the websocket hub.
func New(registry *app.Registry, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	registry.OnSession(func(s *app.Session) {
		s.OnClose(hub.Watch(s))
	})

	return &Server{
		registry:    registry,
		hub:         hub,
		authH:       handler.NewAuthHandler(registry, cfg.TokenTTL, logger.With("component", "auth")),
		sessionH:    handler.NewSessionHandler(),
		householdH:  handler.NewHouseholdHandler(hub),
		taskH:       handler.NewTaskHandler(hub),
		rateLimiter: middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst),
		logger:      logger,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/signup", s.rateLimitedHandler(s.authH.SignUp))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.registry)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.registry.Len(),
		"clients":  s.hub.ClientCount(),
	})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)

	mux.HandleFunc("GET /api/state", s.sessionH.State)
	mux.HandleFunc("PUT /api/profile", s.sessionH.UpdateProfile)
	mux.HandleFunc("GET /api/badges", s.sessionH.Badges)
	mux.HandleFunc("GET /api/notifications", s.sessionH.Notifications)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.sessionH.DismissNotification)

	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)
	mux.Handle("PUT /api/households", middleware.RequireAdmin(http.HandlerFunc(s.householdH.Rename)))
	mux.HandleFunc("GET /api/households/members", s.householdH.Members)

	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/suggest-category", s.taskH.SuggestCategory)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.taskH.Complete)

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
