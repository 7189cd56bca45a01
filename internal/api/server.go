// Package api exposes the audit pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"solaudit/internal/audit"
	"solaudit/internal/chains"
	"solaudit/internal/logging"
	"solaudit/internal/storage"
)

// Auditor runs audits. Implemented by audit.Pipeline; narrowed to an
// interface so handler tests can stub it.
type Auditor interface {
	AuditContract(ctx context.Context, code string, opts audit.Options) (*audit.AuditReport, error)
	AuditAddress(ctx context.Context, address, chainID string, opts audit.Options) (*audit.AuditReport, error)
}

// ReportStore serves the history and statistics endpoints.
// Implemented by storage.DB.
type ReportStore interface {
	ListReports(filter storage.ReportFilter, limit, offset int) ([]storage.ReportSummary, error)
	GetReport(auditID string) (*audit.AuditReport, string, error)
	GetStatistics() (*storage.Statistics, error)
}

// Server represents the HTTP API server
type Server struct {
	router   *http.ServeMux
	server   *http.Server
	addr     string
	logger   *logging.Logger
	auditor  Auditor
	store    ReportStore
	registry *chains.Registry
}

// NewServer creates a new HTTP server instance
func NewServer(addr string, auditor Auditor, store ReportStore, registry *chains.Registry, logger *logging.Logger) *Server {
	s := &Server{
		addr:     addr,
		logger:   logger,
		auditor:  auditor,
		store:    store,
		registry: registry,
		router:   http.NewServeMux(),
	}

	s.registerRoutes()

	handler := s.applyMiddleware(s.router)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // model analysis can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": s.addr,
	})

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server", nil)

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully", nil)
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

// applyMiddleware wraps the handler with middleware in the correct order
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last one wraps first)
	handler = RecoveryMiddleware(s.logger)(handler)
	handler = LoggingMiddleware(s.logger)(handler)
	handler = RequestIDMiddleware()(handler)
	handler = CORSMiddleware()(handler)
	return handler
}
