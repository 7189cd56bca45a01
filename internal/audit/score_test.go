package audit

import (
	"testing"

	"solaudit/internal/config"
)

func defaultScorer() *Scorer {
	return NewScorer(config.DefaultConfig().Scoring)
}

func TestScoreZeroFindings(t *testing.T) {
	res := defaultScorer().Score(nil)

	if res.Overall != 100 {
		t.Errorf("expected score 100, got %d", res.Overall)
	}
	if res.RiskLevel != RiskLow {
		t.Errorf("expected Low risk, got %s", res.RiskLevel)
	}
	if res.Counts.Total() != 0 {
		t.Errorf("expected zero severity counts, got %+v", res.Counts)
	}
}

func TestScoreCriticalPlusHigh(t *testing.T) {
	// Deduction 40+25=65 -> score 35 -> High risk
	res := defaultScorer().Score([]Finding{
		{Severity: SeverityCritical},
		{Severity: SeverityHigh},
	})

	if res.Overall != 35 {
		t.Errorf("expected score 35, got %d", res.Overall)
	}
	if res.RiskLevel != RiskHigh {
		t.Errorf("expected High risk, got %s", res.RiskLevel)
	}
	if res.Counts.Critical != 1 || res.Counts.High != 1 {
		t.Errorf("unexpected counts: %+v", res.Counts)
	}
}

func TestScoreFloor(t *testing.T) {
	findings := make([]Finding, 10)
	for i := range findings {
		findings[i] = Finding{Severity: SeverityCritical}
	}

	res := defaultScorer().Score(findings)
	if res.Overall != 0 {
		t.Errorf("score should floor at 0, got %d", res.Overall)
	}
	if res.RiskLevel != RiskCritical {
		t.Errorf("expected Critical risk at score 0, got %s", res.RiskLevel)
	}
}

func TestScoreMonotonicity(t *testing.T) {
	s := defaultScorer()
	base := []Finding{{Severity: SeverityMedium}, {Severity: SeverityLow}}
	baseScore := s.Score(base).Overall

	for _, sev := range []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, "Bogus"} {
		extended := append(append([]Finding{}, base...), Finding{Severity: sev})
		if got := s.Score(extended).Overall; got > baseScore {
			t.Errorf("adding a %s finding increased the score: %d > %d", sev, got, baseScore)
		}
	}
}

func TestScoreUnknownSeverityAsymmetry(t *testing.T) {
	// Unknown severities deduct weight 10 but are not counted in any bucket.
	// This is a known inconsistency preserved on purpose.
	res := defaultScorer().Score([]Finding{{Severity: "Informational"}})

	if res.Overall != 90 {
		t.Errorf("unknown severity should deduct 10, got score %d", res.Overall)
	}
	if res.Counts.Total() != 0 {
		t.Errorf("unknown severity must not be counted in buckets: %+v", res.Counts)
	}
}

func TestRiskLevelBoundaries(t *testing.T) {
	s := defaultScorer()
	cases := []struct {
		overall int
		want    RiskLevel
	}{
		{100, RiskLow},
		{80, RiskLow},
		{79, RiskMedium},
		{50, RiskMedium},
		{49, RiskHigh},
		{25, RiskHigh},
		{24, RiskCritical},
		{0, RiskCritical},
	}
	for _, c := range cases {
		if got := s.RiskLevelFor(c.overall); got != c.want {
			t.Errorf("RiskLevelFor(%d) = %s, want %s", c.overall, got, c.want)
		}
	}
}

func TestCriticalBoundaryIndependentOfThresholds(t *testing.T) {
	// The Critical/High boundary stays at 25 even with custom thresholds
	cfg := config.DefaultConfig().Scoring
	cfg.HighThreshold = 90
	cfg.MediumThreshold = 60
	s := NewScorer(cfg)

	if s.RiskLevelFor(25) != RiskHigh {
		t.Error("score 25 should be High risk regardless of thresholds")
	}
	if s.RiskLevelFor(24) != RiskCritical {
		t.Error("score 24 should be Critical risk regardless of thresholds")
	}
	if s.RiskLevelFor(89) != RiskMedium {
		t.Error("score 89 should be Medium risk with highThreshold 90")
	}
}
