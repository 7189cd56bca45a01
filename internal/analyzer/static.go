// Package analyzer provides the pipeline's analyzer implementations: the
// pattern-based static analyzer, the Gemini model analyzer, and the JSON-RPC
// chain reader.
package analyzer

import (
	"context"
	"regexp"
	"strings"

	"solaudit/internal/audit"
)

// staticRule is one pattern-matched vulnerability heuristic. The heuristics
// are crude line matchers; precision lives in the model analyzer.
type staticRule struct {
	Name     string
	Category string
	Severity audit.Severity
	Pattern  *regexp.Regexp
}

var solidityRules = []staticRule{
	{
		Name:     "Static Analysis: reentrancy",
		Category: "reentrancy",
		Severity: audit.SeverityHigh,
		Pattern:  regexp.MustCompile(`\.call\{value:|\.call\.value\(`),
	},
	{
		Name:     "Static Analysis: tx.origin authentication",
		Category: "tx-origin",
		Severity: audit.SeverityHigh,
		Pattern:  regexp.MustCompile(`tx\.origin`),
	},
	{
		Name:     "Static Analysis: delegatecall usage",
		Category: "delegatecall",
		Severity: audit.SeverityHigh,
		Pattern:  regexp.MustCompile(`\.delegatecall\(`),
	},
	{
		Name:     "Static Analysis: selfdestruct",
		Category: "selfdestruct",
		Severity: audit.SeverityMedium,
		Pattern:  regexp.MustCompile(`selfdestruct\(|suicide\(`),
	},
	{
		Name:     "Static Analysis: block timestamp dependence",
		Category: "timestamp-dependence",
		Severity: audit.SeverityMedium,
		Pattern:  regexp.MustCompile(`block\.timestamp|\bnow\b`),
	},
	{
		Name:     "Static Analysis: unchecked send",
		Category: "unchecked-send",
		Severity: audit.SeverityMedium,
		Pattern:  regexp.MustCompile(`\.send\(`),
	},
	{
		Name:     "Static Analysis: floating pragma",
		Category: "floating-pragma",
		Severity: audit.SeverityLow,
		Pattern:  regexp.MustCompile(`pragma\s+solidity\s+\^`),
	},
	{
		Name:     "Static Analysis: blockhash randomness",
		Category: "weak-randomness",
		Severity: audit.SeverityMedium,
		Pattern:  regexp.MustCompile(`blockhash\(|block\.difficulty|block\.prevrandao`),
	},
}

var (
	contractNameRe = regexp.MustCompile(`contract\s+(\w+)`)
	functionRe     = regexp.MustCompile(`\bfunction\s+\w+`)
	modifierRe     = regexp.MustCompile(`\bmodifier\s+\w+`)
	eventRe        = regexp.MustCompile(`\bevent\s+\w+`)
	branchRe       = regexp.MustCompile(`\b(if|for|while|require|assert)\b`)
)

// PatternAnalyzer is the built-in static findings adapter
type PatternAnalyzer struct{}

// NewPatternAnalyzer returns the pattern-based static analyzer
func NewPatternAnalyzer() *PatternAnalyzer {
	return &PatternAnalyzer{}
}

// Parse scans the source line by line against the vulnerability rule table
// and computes code metrics
func (a *PatternAnalyzer) Parse(ctx context.Context, source string) (*audit.StaticResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := strings.Split(source, "\n")

	var findings []audit.Finding
	for _, rule := range solidityRules {
		var hits []int
		var snippet string
		for i, line := range lines {
			if isCommentLine(line) {
				continue
			}
			if rule.Pattern.MatchString(line) {
				hits = append(hits, i+1)
				if snippet == "" {
					snippet = strings.TrimSpace(line)
				}
			}
		}
		if len(hits) > 0 {
			findings = append(findings, audit.Finding{
				Name:          rule.Name,
				Severity:      rule.Severity,
				Category:      rule.Category,
				AffectedLines: hits,
				CodeSnippet:   snippet,
				Confidence:    "medium",
			})
		}
	}

	return &audit.StaticResult{
		Findings: findings,
		Metrics:  computeMetrics(source, lines),
	}, nil
}

func isCommentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "/*")
}

func computeMetrics(source string, lines []string) audit.CodeMetrics {
	name := "Unknown"
	if m := contractNameRe.FindStringSubmatch(source); m != nil {
		name = m[1]
	}

	functions := len(functionRe.FindAllString(source, -1))
	branches := len(branchRe.FindAllString(source, -1))

	// Rough cyclomatic estimate: one per function plus one per branch point
	complexity := functions + branches
	if complexity > 100 {
		complexity = 100
	}

	return audit.CodeMetrics{
		ContractName:  name,
		FunctionCount: functions,
		ModifierCount: len(modifierRe.FindAllString(source, -1)),
		EventCount:    len(eventRe.FindAllString(source, -1)),
		Complexity:    complexity,
		LinesOfCode:   len(lines),
	}
}
