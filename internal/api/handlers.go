package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"solaudit/internal/audit"
	"solaudit/internal/storage"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// AuditOptions are the caller-supplied knobs for an audit run
type AuditOptions struct {
	ContractName string `json:"contractName,omitempty"`
}

// ContractAuditRequest is the body of POST /api/audit/contract
type ContractAuditRequest struct {
	ContractCode string       `json:"contractCode"`
	Options      AuditOptions `json:"options"`
}

// AddressAuditRequest is the body of POST /api/audit/address
type AddressAuditRequest struct {
	ContractAddress string       `json:"contractAddress"`
	Chain           string       `json:"chain"`
	Options         AuditOptions `json:"options"`
}

// AuditResponse wraps a finished report for API callers
type AuditResponse struct {
	Success bool               `json:"success"`
	Data    *audit.AuditReport `json:"data"`
}

// handleAuditContract runs the full pipeline on posted source code
func (s *Server) handleAuditContract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ContractAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}

	report, err := s.auditor.AuditContract(r.Context(), req.ContractCode, audit.Options{
		ContractName: req.Options.ContractName,
	})
	if err != nil {
		s.logger.Warn("Contract audit failed", map[string]interface{}{
			"error":     err.Error(),
			"requestID": GetRequestID(r.Context()),
		})
		WriteAuditError(w, err)
		return
	}

	WriteJSON(w, AuditResponse{Success: true, Data: report}, http.StatusOK)
}

// handleAuditAddress audits a deployed contract by chain address
func (s *Server) handleAuditAddress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AddressAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid JSON body")
		return
	}
	if req.Chain == "" {
		req.Chain = "ethereum"
	}

	report, err := s.auditor.AuditAddress(r.Context(), req.ContractAddress, req.Chain, audit.Options{
		ContractName: req.Options.ContractName,
	})
	if err != nil {
		s.logger.Warn("Address audit failed", map[string]interface{}{
			"address":   req.ContractAddress,
			"chain":     req.Chain,
			"error":     err.Error(),
			"requestID": GetRequestID(r.Context()),
		})
		WriteAuditError(w, err)
		return
	}

	WriteJSON(w, AuditResponse{Success: true, Data: report}, http.StatusOK)
}

// handleHistory lists stored audits, newest first
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		WriteJSON(w, map[string]interface{}{"reports": []storage.ReportSummary{}}, http.StatusOK)
		return
	}

	q := r.URL.Query()
	limit := parseIntParam(q.Get("limit"), defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := parseIntParam(q.Get("offset"), 0)

	filter := storage.ReportFilter{
		Status:    q.Get("status"),
		RiskLevel: q.Get("riskLevel"),
		Chain:     q.Get("chain"),
	}

	reports, err := s.store.ListReports(filter, limit, offset)
	if err != nil {
		InternalError(w, "failed to list audit history")
		return
	}

	WriteJSON(w, map[string]interface{}{
		"reports": reports,
		"limit":   limit,
		"offset":  offset,
	}, http.StatusOK)
}

// handleGetReport loads one stored report by audit ID
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	auditID := strings.TrimPrefix(r.URL.Path, "/api/audit/report/")
	if auditID == "" || strings.Contains(auditID, "/") {
		BadRequest(w, "missing audit ID")
		return
	}
	if s.store == nil {
		NotFound(w, "audit not found")
		return
	}

	report, _, err := s.store.GetReport(auditID)
	if err != nil {
		InternalError(w, "failed to load report")
		return
	}
	if report == nil {
		NotFound(w, "audit not found")
		return
	}

	WriteJSON(w, AuditResponse{Success: true, Data: report}, http.StatusOK)
}

// handleStatistics aggregates stored history
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		WriteJSON(w, &storage.Statistics{
			RiskBreakdown: map[string]int{},
			AuditsByChain: map[string]int{},
		}, http.StatusOK)
		return
	}

	stats, err := s.store.GetStatistics()
	if err != nil {
		InternalError(w, "failed to compute statistics")
		return
	}

	WriteJSON(w, stats, http.StatusOK)
}

// handleChains lists the supported chains
func (s *Server) handleChains(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	WriteJSON(w, map[string]interface{}{
		"chains": s.registry.List(),
	}, http.StatusOK)
}

// parseIntParam parses a non-negative query parameter with a fallback
func parseIntParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
