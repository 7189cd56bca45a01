package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewAuditID generates a collision-resistant audit identifier.
// Timestamp plus a random suffix is sufficient; no global counter.
func NewAuditID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("audit_%d_%s", time.Now().UnixMilli(), suffix)
}

// assembleReport packages metadata, findings and scores into the final report
func assembleReport(auditID string, info ContractInfo, findings []Finding, score ScoreResult, summary string, recommendations []string, started time.Time) *AuditReport {
	if findings == nil {
		findings = []Finding{}
	}
	return &AuditReport{
		AuditID:         auditID,
		Status:          StatusCompleted,
		Type:            TypeFullAnalysis,
		ContractInfo:    info,
		Findings:        findings,
		OverallScore:    score.Overall,
		RiskLevel:       score.RiskLevel,
		SeverityCounts:  score.Counts,
		Summary:         summary,
		Recommendations: recommendations,
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMs: time.Since(started).Milliseconds(),
	}
}

// assembleBytecodeReport builds the reduced-confidence report for addresses
// with no verified source. The score is a constant, not computed.
func assembleBytecodeReport(auditID string, info ContractInfo, analysis BytecodeAnalysis, started time.Time) *AuditReport {
	findings := make([]Finding, 0, len(analysis.Warnings))
	for _, w := range analysis.Warnings {
		findings = append(findings, Finding{
			Name:          w,
			Severity:      SeverityMedium,
			Category:      "bytecode-pattern",
			AffectedLines: []int{},
			Source:        SourceStatic,
			Confidence:    "low",
		})
	}

	info.Complexity = analysis.Complexity
	info.LinesOfCode = 0

	return &AuditReport{
		AuditID:      auditID,
		Status:       StatusCompleted,
		Type:         TypeBytecodeOnly,
		ContractInfo: info,
		Findings:     findings,
		OverallScore: bytecodeScore,
		RiskLevel:    RiskMedium,
		SeverityCounts: SeverityCounts{
			Medium: len(findings),
		},
		Summary: fmt.Sprintf(
			"Bytecode-only analysis: %d bytes of unverified code, %d opcode pattern(s) flagged. Source verification is required for a full audit.",
			analysis.Size, len(analysis.Warnings)),
		Recommendations: bytecodeRecommendations,
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMs: time.Since(started).Milliseconds(),
	}
}

// failedReport is the minimal record produced when a run fails
func failedReport(auditID string, err error) *AuditReport {
	return &AuditReport{
		AuditID:   auditID,
		Status:    StatusFailed,
		Findings:  []Finding{},
		Error:     err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

// buildSummary produces the human-readable report summary, preferring the
// model's narrative when available
func buildSummary(modelSummary string, counts SeverityCounts, overall int) string {
	if modelSummary != "" {
		return modelSummary
	}
	if counts.Total() == 0 {
		return fmt.Sprintf("No issues detected. Overall security score: %d/100.", overall)
	}
	return fmt.Sprintf(
		"Detected %d issue(s): %d critical, %d high, %d medium, %d low. Overall security score: %d/100.",
		counts.Total(), counts.Critical, counts.High, counts.Medium, counts.Low, overall)
}
