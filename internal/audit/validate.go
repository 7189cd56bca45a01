package audit

import (
	"fmt"
	"regexp"
	"strings"

	"solaudit/internal/auditerr"
)

// DefaultMaxSourceBytes is the default upper bound for contract submissions
const DefaultMaxSourceBytes = 1 << 20

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// contractMarkers is the crude source-shape heuristic: a submission that
// contains none of these is rejected as not-a-contract. False negatives on
// exotic sources are accepted.
var contractMarkers = []string{"contract", "interface", "library"}

// Validator performs pure input validation before any analysis runs
type Validator struct {
	maxBytes int
}

// NewValidator returns a validator with the given size limit.
// A non-positive limit falls back to DefaultMaxSourceBytes.
func NewValidator(maxBytes int) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxSourceBytes
	}
	return &Validator{maxBytes: maxBytes}
}

// ValidateSource checks a source-code submission
func (v *Validator) ValidateSource(code string) error {
	if strings.TrimSpace(code) == "" {
		return auditerr.New(auditerr.Validation, "contract source is empty").
			WithDetails(map[string]string{"reason": "empty_input"})
	}
	if len(code) > v.maxBytes {
		return auditerr.New(auditerr.Validation,
			fmt.Sprintf("contract source exceeds maximum size of %d bytes", v.maxBytes)).
			WithDetails(map[string]interface{}{"reason": "oversized_input", "maxBytes": v.maxBytes, "gotBytes": len(code)})
	}
	for _, marker := range contractMarkers {
		if strings.Contains(code, marker) {
			return nil
		}
	}
	return auditerr.New(auditerr.Validation,
		"input does not look like Solidity: no contract, interface or library declaration").
		WithDetails(map[string]string{"reason": "not_a_contract"})
}

// ValidateAddress checks an address-based submission
func (v *Validator) ValidateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return auditerr.New(auditerr.Validation, "contract address is empty").
			WithDetails(map[string]string{"reason": "empty_input"})
	}
	if !addressPattern.MatchString(address) {
		return auditerr.New(auditerr.Validation,
			fmt.Sprintf("invalid contract address: %s", address)).
			WithDetails(map[string]string{"reason": "invalid_address"})
	}
	return nil
}
