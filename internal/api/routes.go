package api

import (
	"net/http"

	"solaudit/internal/version"
)

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	// Health check
	s.router.HandleFunc("/health", s.handleHealth)

	// Audit operations
	s.router.HandleFunc("/api/audit/contract", s.handleAuditContract) // POST
	s.router.HandleFunc("/api/audit/address", s.handleAuditAddress)   // POST

	// History and aggregates
	s.router.HandleFunc("/api/audit/history", s.handleHistory)       // GET
	s.router.HandleFunc("/api/audit/report/", s.handleGetReport)     // GET /api/audit/report/:id
	s.router.HandleFunc("/api/audit/statistics", s.handleStatistics) // GET
	s.router.HandleFunc("/api/audit/chains", s.handleChains)         // GET

	// Root endpoint
	s.router.HandleFunc("/", s.handleRoot)
}

// handleRoot handles requests to the root path
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"name":    "solaudit HTTP API",
		"version": version.Version,
		"endpoints": []string{
			"GET /health - Health check",
			"POST /api/audit/contract - Audit posted contract source",
			"POST /api/audit/address - Audit a deployed contract by address",
			"GET /api/audit/history - List past audits",
			"GET /api/audit/report/:id - Get a stored report",
			"GET /api/audit/statistics - Aggregate audit statistics",
			"GET /api/audit/chains - List supported chains",
		},
	}

	WriteJSON(w, response, http.StatusOK)
}
