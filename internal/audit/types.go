// Package audit implements the contract audit pipeline: input validation,
// finding combination and deduplication, severity-weighted scoring, the
// bytecode fallback path, and report assembly.
package audit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"solaudit/internal/chains"
)

// Severity classifies a finding. Values outside the four canonical levels can
// reach the scorer when an adapter misbehaves; they are scored with the
// unknown weight and excluded from severity counts.
type Severity string

const (
	SeverityCritical Severity = "Critical"
	SeverityHigh     Severity = "High"
	SeverityMedium   Severity = "Medium"
	SeverityLow      Severity = "Low"
)

// NormalizeSeverity maps adapter severity strings onto the canonical levels.
// Empty input defaults to Medium; anything unrecognized is kept verbatim so
// the scorer can apply the unknown-severity weight.
func NormalizeSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high":
		return SeverityHigh
	case "medium", "":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return Severity(s)
	}
}

// FindingSource records which analyzer produced a finding
type FindingSource string

const (
	SourceStatic FindingSource = "static"
	SourceModel  FindingSource = "model"
)

// Finding is a normalized vulnerability or static-analysis hit
type Finding struct {
	Name          string        `json:"name"`
	Severity      Severity      `json:"severity"`
	Category      string        `json:"category"`
	AffectedLines []int         `json:"affectedLines"`
	CodeSnippet   string        `json:"codeSnippet,omitempty"`
	Source        FindingSource `json:"source"`
	Confidence    string        `json:"confidence,omitempty"`
}

// DedupKey is the canonical identity used to collapse duplicate findings.
// Confidence and snippet are deliberately excluded.
func (f *Finding) DedupKey() string {
	lines := make([]string, len(f.AffectedLines))
	for i, l := range f.AffectedLines {
		lines[i] = strconv.Itoa(l)
	}
	return f.Category + "-" + strings.Join(lines, ",") + "-" + string(f.Severity)
}

// ReportStatus is the terminal state of an audit run
type ReportStatus string

const (
	StatusCompleted ReportStatus = "completed"
	StatusFailed    ReportStatus = "failed"
)

// ReportType distinguishes the full pipeline from the bytecode fallback
type ReportType string

const (
	TypeFullAnalysis ReportType = "full-analysis"
	TypeBytecodeOnly ReportType = "bytecode-only"
)

// RiskLevel is a four-value ordinal classification derived from the score
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// SeverityCounts holds per-severity finding counts
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the sum of all buckets
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// ContractInfo holds metadata about the audited contract
type ContractInfo struct {
	Name          string `json:"name"`
	FunctionCount int    `json:"functionCount"`
	ModifierCount int    `json:"modifierCount"`
	EventCount    int    `json:"eventCount"`
	Complexity    int    `json:"complexity"`
	LinesOfCode   int    `json:"linesOfCode"`
	Address       string `json:"address,omitempty"`
	Chain         string `json:"chain,omitempty"`
}

// AuditReport is the unit of output, immutable after assembly
type AuditReport struct {
	AuditID         string         `json:"auditId"`
	Status          ReportStatus   `json:"status"`
	Type            ReportType     `json:"type,omitempty"`
	ContractInfo    ContractInfo   `json:"contractInfo"`
	Findings        []Finding      `json:"findings"`
	OverallScore    int            `json:"overallScore"`
	RiskLevel       RiskLevel      `json:"riskLevel"`
	SeverityCounts  SeverityCounts `json:"severityCounts"`
	Summary         string         `json:"summary,omitempty"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Error           string         `json:"error,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
}

// CodeMetrics is the structural summary produced by the static analyzer
type CodeMetrics struct {
	ContractName  string `json:"contractName"`
	FunctionCount int    `json:"functionCount"`
	ModifierCount int    `json:"modifierCount"`
	EventCount    int    `json:"eventCount"`
	Complexity    int    `json:"complexity"`
	LinesOfCode   int    `json:"linesOfCode"`
}

// StaticResult is the output of the static findings adapter
type StaticResult struct {
	Findings []Finding   `json:"findings"`
	Metrics  CodeMetrics `json:"codeMetrics"`
}

// ModelResult is the output of the model findings adapter
type ModelResult struct {
	Vulnerabilities  []Finding `json:"vulnerabilities"`
	GasOptimizations []string  `json:"gasOptimizations"`
	CodeQuality      int       `json:"codeQuality"`
	Summary          string    `json:"summary"`
	Recommendations  []string  `json:"recommendations"`
}

// ChainContract is what the chain reader resolves for an address
type ChainContract struct {
	SourceCode   string `json:"sourceCode,omitempty"`
	ContractName string `json:"contractName,omitempty"`
	Bytecode     string `json:"bytecode"`
	ChainID      int64  `json:"chainId"`
	Balance      string `json:"balance"`
	TxCount      uint64 `json:"txCount"`
}

// StaticAnalyzer produces pattern-matched findings and code metrics
type StaticAnalyzer interface {
	Parse(ctx context.Context, source string) (*StaticResult, error)
}

// ModelAnalyzer produces model-judged vulnerabilities and a quality verdict.
// The static result is optional enrichment; implementations must tolerate nil.
type ModelAnalyzer interface {
	Analyze(ctx context.Context, source string, static *StaticResult) (*ModelResult, error)
}

// ChainReader resolves source and bytecode for an on-chain address
type ChainReader interface {
	Fetch(ctx context.Context, address string, chain chains.Chain) (*ChainContract, error)
}

// Persistence stores finished reports. Calls are best-effort: the pipeline
// never fails a run over a persistence error.
type Persistence interface {
	SaveReport(report *AuditReport, source string) error
}
