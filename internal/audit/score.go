package audit

import "solaudit/internal/config"

// criticalBoundary is the fixed score below which risk is Critical.
// It is independent of the configurable thresholds.
const criticalBoundary = 25

// Scorer converts a deduplicated finding list into an overall score,
// a risk level, and per-severity counts
type Scorer struct {
	cfg config.ScoringConfig
}

// NewScorer builds a scorer from scoring configuration
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// ScoreResult is the scorer output
type ScoreResult struct {
	Overall   int
	RiskLevel RiskLevel
	Counts    SeverityCounts
}

// Score computes the severity-weighted deduction for the findings.
//
// Findings with a severity outside the four canonical levels contribute the
// unknown weight to the deduction but are not counted in any severity bucket.
// That asymmetry matches the upstream scoring policy and is kept on purpose;
// see DESIGN.md before changing it.
func (s *Scorer) Score(findings []Finding) ScoreResult {
	var counts SeverityCounts
	deduction := 0

	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			counts.Critical++
			deduction += s.cfg.CriticalWeight
		case SeverityHigh:
			counts.High++
			deduction += s.cfg.HighWeight
		case SeverityMedium:
			counts.Medium++
			deduction += s.cfg.MediumWeight
		case SeverityLow:
			counts.Low++
			deduction += s.cfg.LowWeight
		default:
			deduction += s.cfg.UnknownWeight
		}
	}

	overall := 100 - deduction
	if overall < 0 {
		overall = 0
	}

	return ScoreResult{
		Overall:   overall,
		RiskLevel: s.RiskLevelFor(overall),
		Counts:    counts,
	}
}

// RiskLevelFor maps an overall score onto a risk level
func (s *Scorer) RiskLevelFor(overall int) RiskLevel {
	switch {
	case overall >= s.cfg.HighThreshold:
		return RiskLow
	case overall >= s.cfg.MediumThreshold:
		return RiskMedium
	case overall >= criticalBoundary:
		return RiskHigh
	default:
		return RiskCritical
	}
}
