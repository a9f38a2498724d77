// Package api provides the HTTP API server and handlers for TuneScout.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/tunescout/tunescout-server/internal/library"
	"github.com/tunescout/tunescout-server/internal/pipeline"
	"github.com/tunescout/tunescout-server/internal/provider"
	"github.com/tunescout/tunescout-server/internal/service"
	"github.com/tunescout/tunescout-server/internal/store"
	"github.com/tunescout/tunescout-server/internal/validation"
)

// Services groups the components the handlers depend on.
type Services struct {
	Store    *store.Store
	Queue    *service.ReviewQueueService
	Pipeline *pipeline.Pipeline
	Provider provider.Provider
	Library  *library.Snapshot
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services  *Services
	router    *chi.Mux
	api       huma.API
	validator *validation.Validator
	logger    *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	RegisterErrorHandler()

	s := &Server{
		services:  services,
		router:    router,
		validator: validation.New(),
		logger:    logger,
	}

	// chi requires all middleware to be registered before any route, and
	// humachi.New registers huma's routes on the router.
	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("TuneScout API", "1.0.0")
	s.api = humachi.New(router, humaConfig)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check stays outside the OpenAPI surface.
	s.router.Get("/health", s.handleHealthCheck)

	s.registerReviewRoutes()
	s.registerRecommendRoutes()
}
