// Package handler provides the JSON HTTP API of the theory forum.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/theory-forum/internal/auth"
	"github.com/prn-tf/theory-forum/internal/metrics"
	"github.com/prn-tf/theory-forum/internal/service"
)

// DefaultMaxBodySize bounds request bodies when no limit is configured.
const DefaultMaxBodySize = 1 << 20

// APIPrefix is the mount point of every route.
const APIPrefix = "/api/v1"

// Handler serves the forum API.
type Handler struct {
	users       *service.UserService
	theories    *service.TheoryService
	comments    *service.CommentService
	tokens      *service.TokenService
	health      func(ctx context.Context) error
	maxBodySize int64
	logger      zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	UserService    *service.UserService
	TheoryService  *service.TheoryService
	CommentService *service.CommentService
	TokenService   *service.TokenService

	// Health reports backend reachability for GET /health. Optional.
	Health func(ctx context.Context) error

	Metrics     *metrics.Metrics
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter builds the API router with its middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	h := &Handler{
		users:       cfg.UserService,
		theories:    cfg.TheoryService,
		comments:    cfg.CommentService,
		tokens:      cfg.TokenService,
		health:      cfg.Health,
		maxBodySize: cfg.MaxBodySize,
		logger:      cfg.Logger.With().Str("component", "handler").Logger(),
	}
	if h.maxBodySize <= 0 {
		h.maxBodySize = DefaultMaxBodySize
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(AccessLog(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware(cfg.TokenService, cfg.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, APIError{Code: CodeNotFound, Message: "no such route", HTTPStatusCode: http.StatusNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, APIError{Code: CodeBadRequest, Message: "method not allowed", HTTPStatusCode: http.StatusMethodNotAllowed})
	})

	r.Route(APIPrefix, h.RegisterRoutes)
	return r
}

// RegisterRoutes registers the API routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.handleHealth)

	// Session
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Put("/me/anonymous", h.handleSetAnonymous)

	// Theories
	r.Get("/theories", h.handleQueryTheories)
	r.Post("/theories", h.handleCreateTheory)
	r.Get("/theories/{id}", h.handleGetTheory)
	r.Patch("/theories/{id}", h.handleUpdateTheory)
	r.Delete("/theories/{id}", h.handleDeleteTheory)

	// Comments
	r.Get("/theories/{id}/comments", h.handleListComments)
	r.Post("/theories/{id}/comments", h.handleCreateComment)
	r.Patch("/comments/{id}", h.handleUpdateComment)
	r.Delete("/comments/{id}", h.handleDeleteComment)

	// Users
	r.Get("/users/{id}", h.handleGetUser)
	r.Get("/users/{id}/theories", h.handleUserTheories)
}

// handleHealth handles health check requests.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("health check failed")
			writeAPIError(w, APIError{Code: CodeUnavailable, Message: "store unavailable", HTTPStatusCode: http.StatusServiceUnavailable})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
