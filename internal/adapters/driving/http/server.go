package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driving"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string
	logger     *slog.Logger

	// Services
	authService    driving.AuthService // optional, admin routes answer 503 without it
	searchService  driving.SearchService
	answerService  driving.AnswerService
	catalogService driving.CatalogService
	reindexService driving.ReindexService
	capabilities   CapabilityReporter // optional, the route answers 404 without it
}

// CapabilityReporter describes the search modes and operations available
type CapabilityReporter interface {
	Capabilities() domain.Capabilities
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	Version     string
	CORSOrigins []string
	Logger      *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:        "0.0.0.0",
		Port:        8080,
		Version:     "dev",
		CORSOrigins: []string{"*"},
	}
}

// Services groups the driving ports served over HTTP
type Services struct {
	Auth    driving.AuthService
	Search  driving.SearchService
	Answer  driving.AnswerService
	Catalog driving.CatalogService
	Reindex driving.ReindexService

	Capabilities CapabilityReporter
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, svc Services) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		logger:         logger,
		authService:    svc.Auth,
		searchService:  svc.Search,
		answerService:  svc.Answer,
		catalogService: svc.Catalog,
		reindexService: svc.Reindex,
		capabilities:   svc.Capabilities,
	}
	s.setupRoutes()

	var handler http.Handler = s.router
	handler = NewCORSMiddleware(cfg.CORSOrigins).Handler(handler)
	handler = NewLoggingMiddleware(logger).Handler(handler)
	handler = NewRecoveryMiddleware(logger).Handler(handler)
	handler = RequestIDMiddleware(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // generative answers can be slow
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	operator := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(authMiddleware.RequireOperator(h))
	}

	// Health endpoints
	s.router.HandleFunc("GET /api/health", s.handleHealth)
	s.router.HandleFunc("GET /api/version", s.handleVersion)
	s.router.HandleFunc("GET /api/capabilities", s.handleCapabilities)
	s.router.HandleFunc("GET /api/docs/doc.json", s.handleDocs)

	// Catalog and retrieval
	s.router.HandleFunc("GET /api/sources", s.handleListSources)
	s.router.HandleFunc("POST /api/search", s.handleSearch)

	// Language model
	s.router.HandleFunc("POST /api/generate", s.handleGenerate)
	s.router.HandleFunc("POST /api/llm/doc_query", s.handleDocQuery)

	// Operator auth
	s.router.HandleFunc("POST /api/auth/token", s.handleIssueToken)

	// Reindex administration (operator only)
	s.router.Handle("POST /api/admin/reindex", operator(s.handleReindex))
	s.router.Handle("POST /api/admin/reindex/all", operator(s.handleReindexAll))
	s.router.Handle("GET /api/admin/reindex/runs", operator(s.handleListRuns))
}

// Handler returns the fully wrapped handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
