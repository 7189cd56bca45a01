package auditerr

import (
	"errors"
	"fmt"
)

// Code represents stable error codes for all failure modes
type Code string

const (
	// Validation indicates malformed or oversized input
	Validation Code = "VALIDATION_ERROR"
	// UnsupportedChain indicates an unknown chain identifier
	UnsupportedChain Code = "UNSUPPORTED_CHAIN"
	// ContractNotFound indicates the address has no deployed code
	ContractNotFound Code = "CONTRACT_NOT_FOUND"
	// AnalysisUnavailable indicates the model analyzer is down or timed out
	AnalysisUnavailable Code = "ANALYSIS_UNAVAILABLE"
	// Parse indicates the static analyzer rejected the source
	Parse Code = "PARSE_ERROR"
	// Internal indicates an unexpected error
	Internal Code = "INTERNAL_ERROR"
)

// Error is a pipeline error with a stable code surfaced to API callers
type Error struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates an Error with the given code and message
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error around an underlying cause
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf extracts the stable code from err, or Internal for plain errors.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return Internal
}

// MessageOf extracts the caller-facing message from err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
