package audit

import "strings"

// bytecodeScore is the constant score for bytecode-only reports; without
// verified source the weighted scoring policy does not apply.
const bytecodeScore = 60

// opcodeRule maps an opcode hex byte to a pattern name and warning text.
// These are substring tests on the hex dump, not a disassembler; hits inside
// data segments are accepted false positives.
type opcodeRule struct {
	Name    string
	Hex     string
	Warning string
}

// opcodeRules is fixed; order determines warning order in the output.
var opcodeRules = []opcodeRule{
	{Name: "selfdestruct", Hex: "ff", Warning: "Contract contains selfdestruct functionality"},
	{Name: "delegatecall", Hex: "f4", Warning: "Contract uses delegatecall, verify the target is trusted"},
	{Name: "create2", Hex: "f5", Warning: "Contract can deploy other contracts via CREATE2"},
	{Name: "extcodecopy", Hex: "3c", Warning: "Contract copies external code at runtime"},
	{Name: "extcodesize", Hex: "3b", Warning: "Contract inspects external code size, possible contract-detection logic"},
	{Name: "balance", Hex: "31", Warning: "Contract reads account balances"},
	{Name: "callvalue", Hex: "34", Warning: "Contract inspects call value, verify payable paths"},
}

// BytecodeAnalysis is the reduced-confidence result for unverified contracts
type BytecodeAnalysis struct {
	Size       int             `json:"size"`
	Complexity int             `json:"complexity"`
	Patterns   map[string]bool `json:"patterns"`
	Warnings   []string        `json:"warnings"`
}

// AnalyzeBytecode inspects raw hex bytecode for a fixed set of opcode
// signatures. Identical input always yields identical output.
func AnalyzeBytecode(hexBytecode string) BytecodeAnalysis {
	code := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hexBytecode), "0x"))

	size := len(code) / 2
	jumpCount := strings.Count(code, "56") + strings.Count(code, "57")
	callCount := strings.Count(code, "f1")

	complexity := size/100 + jumpCount*2 + callCount*3
	if complexity > 100 {
		complexity = 100
	}

	patterns := make(map[string]bool, len(opcodeRules))
	var warnings []string
	for _, rule := range opcodeRules {
		hit := strings.Contains(code, rule.Hex)
		patterns[rule.Name] = hit
		if hit {
			warnings = append(warnings, rule.Warning)
		}
	}

	return BytecodeAnalysis{
		Size:       size,
		Complexity: complexity,
		Patterns:   patterns,
		Warnings:   warnings,
	}
}

// bytecodeRecommendations is the fixed advice attached to bytecode-only reports
var bytecodeRecommendations = []string{
	"Verify the contract source code on a block explorer to enable full analysis",
	"Treat unverified contracts with caution before interacting with them",
	"Request the source code from the contract deployer",
}
