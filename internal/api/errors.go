package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"solaudit/internal/auditerr"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteError writes an error response to the HTTP response writer
func WriteError(w http.ResponseWriter, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := ErrorResponse{
		Error: auditerr.MessageOf(err),
		Code:  string(auditerr.CodeOf(err)),
	}

	var ae *auditerr.Error
	if errors.As(err, &ae) {
		resp.Details = ae.Details
	}

	json.NewEncoder(w).Encode(resp)
}

// WriteAuditError writes a pipeline error with automatic status code mapping
func WriteAuditError(w http.ResponseWriter, err error) {
	WriteError(w, err, MapCodeToStatus(auditerr.CodeOf(err)))
}

// MapCodeToStatus maps stable pipeline error codes to HTTP status codes
func MapCodeToStatus(code auditerr.Code) int {
	switch code {
	case auditerr.Validation:
		return http.StatusBadRequest // 400
	case auditerr.Parse:
		return http.StatusBadRequest // 400
	case auditerr.UnsupportedChain:
		return http.StatusBadRequest // 400
	case auditerr.ContractNotFound:
		return http.StatusNotFound // 404
	case auditerr.AnalysisUnavailable:
		return http.StatusServiceUnavailable // 503
	case auditerr.Internal:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, auditerr.New(auditerr.Validation, message), http.StatusBadRequest)
}

// NotFound writes a 404 Not Found error
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, auditerr.New(auditerr.ContractNotFound, message), http.StatusNotFound)
}

// InternalError writes a 500 Internal Server Error
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, auditerr.New(auditerr.Internal, message), http.StatusInternalServerError)
}
