// Package server provides the HTTP API for Jabiru.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/jabiru-analytics/jabiru/internal/ai"
	"github.com/jabiru-analytics/jabiru/internal/auth"
	"github.com/jabiru-analytics/jabiru/internal/storage"
	"github.com/jabiru-analytics/jabiru/internal/store"
)

// Config holds the HTTP-facing settings.
type Config struct {
	Addr            string
	CORSOrigins     []string
	MaxUploadBytes  int64
	MaxProcessBytes int64
	BcryptCost      int
	ChatTemperature float64
	ChatMaxTokens   int
	Version         string
}

// Deps are the services handlers call into. AI may be nil when no API key is configured.
type Deps struct {
	Store  *store.Store
	Files  *storage.LocalFileStorage
	AI     *ai.Service
	Tokens *auth.TokenIssuer
	Logger *zap.Logger
}

// Server is the HTTP server for the Jabiru API.
type Server struct {
	cfg    Config
	store  *store.Store
	files  *storage.LocalFileStorage
	ai     *ai.Service
	tokens *auth.TokenIssuer
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{
		cfg:    cfg,
		store:  deps.Store,
		files:  deps.Files,
		ai:     deps.AI,
		tokens: deps.Tokens,
		logger: deps.Logger,
	}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the router with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.tokens, s.store))

			r.Get("/users/me", s.handleMe)

			r.Post("/projects", s.handleCreateProject)
			r.Get("/projects", s.handleListProjects)
			r.Get("/projects/{projectID}", s.handleGetProject)
			r.Put("/projects/{projectID}", s.handleUpdateProject)
			r.Delete("/projects/{projectID}", s.handleDeleteProject)

			r.Post("/projects/{projectID}/files", s.handleUploadFile)
			r.Get("/projects/{projectID}/files", s.handleListFiles)
			r.Delete("/files/{fileID}", s.handleDeleteFile)
			r.Get("/files/{fileID}/preview", s.handlePreviewFile)
			r.Get("/files/{fileID}/column-stats/{column}", s.handleColumnStats)
			r.Post("/files/{fileID}/insights", s.handleInsights)
			r.Post("/files/{fileID}/chart-suggestion", s.handleChartSuggestion)

			r.Post("/projects/{projectID}/canvases", s.handleCreateCanvas)
			r.Get("/projects/{projectID}/canvases", s.handleListCanvases)
			r.Get("/canvases/{canvasID}", s.handleGetCanvas)
			r.Put("/canvases/{canvasID}", s.handleUpdateCanvas)
			r.Delete("/canvases/{canvasID}", s.handleDeleteCanvas)

			r.Post("/projects/{projectID}/chat", s.handleChat)
			r.Get("/projects/{projectID}/chat/health", s.handleChatHealth)

			r.Get("/ai/health", s.handleAIHealth)
			r.Get("/ai/usage", s.handleAIUsage)
			r.Delete("/ai/cache", s.handleAIClearCache)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.cfg.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Jabiru API"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "jabiru-backend",
		"version": s.cfg.Version,
	})
}
