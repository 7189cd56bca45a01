package audit

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"solaudit/internal/auditerr"
	"solaudit/internal/chains"
	"solaudit/internal/config"
	"solaudit/internal/logging"
)

const testSource = `pragma solidity ^0.8.0;
contract Vault {
    function withdraw() public {}
}`

const testAddress = "0xdAC17F958D2ee523a2206206994597C13D831ec7"

type stubStatic struct {
	res *StaticResult
	err error
}

func (s *stubStatic) Parse(ctx context.Context, source string) (*StaticResult, error) {
	return s.res, s.err
}

type stubModel struct {
	res   *ModelResult
	err   error
	delay time.Duration
}

func (s *stubModel) Analyze(ctx context.Context, source string, static *StaticResult) (*ModelResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.res, s.err
}

type stubChain struct {
	contract *ChainContract
	err      error
}

func (s *stubChain) Fetch(ctx context.Context, address string, chain chains.Chain) (*ChainContract, error) {
	return s.contract, s.err
}

type stubStore struct {
	saved chan *AuditReport
	err   error
}

func newStubStore() *stubStore {
	return &stubStore{saved: make(chan *AuditReport, 4)}
}

func (s *stubStore) SaveReport(report *AuditReport, source string) error {
	s.saved <- report
	return s.err
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: io.Discard})
}

func newTestPipeline(static StaticAnalyzer, model ModelAnalyzer, chain ChainReader, store Persistence) *Pipeline {
	return NewPipeline(config.DefaultConfig(), static, model, chain, chains.NewRegistry(), store, testLogger())
}

func okStatic() *stubStatic {
	return &stubStatic{res: &StaticResult{
		Findings: []Finding{
			{Name: "Static Analysis: reentrancy", Category: "reentrancy", Severity: SeverityHigh, AffectedLines: []int{3}},
		},
		Metrics: CodeMetrics{ContractName: "Vault", FunctionCount: 1, LinesOfCode: 4, Complexity: 3},
	}}
}

func okModel() *stubModel {
	return &stubModel{res: &ModelResult{
		Vulnerabilities: []Finding{
			{Name: "Missing access control", Category: "access-control", Severity: SeverityCritical},
		},
		Summary:         "One critical and one high issue.",
		Recommendations: []string{"Add onlyOwner to withdraw"},
	}}
}

func TestAuditContractCompletes(t *testing.T) {
	store := newStubStore()
	p := newTestPipeline(okStatic(), okModel(), nil, store)

	report, err := p.AuditContract(context.Background(), testSource, Options{})
	if err != nil {
		t.Fatalf("audit should complete: %v", err)
	}

	if report.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", report.Status)
	}
	if report.Type != TypeFullAnalysis {
		t.Errorf("expected full-analysis type, got %s", report.Type)
	}
	if len(report.Findings) != 2 {
		t.Errorf("expected 2 findings, got %d", len(report.Findings))
	}
	// Critical(40) + High(25) = 65 deduction
	if report.OverallScore != 35 {
		t.Errorf("expected score 35, got %d", report.OverallScore)
	}
	if report.RiskLevel != RiskHigh {
		t.Errorf("expected High risk, got %s", report.RiskLevel)
	}
	if report.SeverityCounts.Total() != len(report.Findings) {
		t.Errorf("severity counts %d must sum to findings length %d",
			report.SeverityCounts.Total(), len(report.Findings))
	}
	if report.ContractInfo.Name != "Vault" {
		t.Errorf("contract name should come from static metrics, got %q", report.ContractInfo.Name)
	}
	if !strings.HasPrefix(report.AuditID, "audit_") {
		t.Errorf("unexpected audit id format: %s", report.AuditID)
	}

	select {
	case saved := <-store.saved:
		if saved.AuditID != report.AuditID {
			t.Error("persisted report should match the returned report")
		}
	case <-time.After(time.Second):
		t.Error("report was not persisted")
	}
}

func TestAuditContractValidationFailure(t *testing.T) {
	p := newTestPipeline(okStatic(), okModel(), nil, nil)

	report, err := p.AuditContract(context.Background(), "", Options{})
	if err == nil {
		t.Fatal("empty source should fail")
	}
	if auditerr.CodeOf(err) != auditerr.Validation {
		t.Errorf("expected VALIDATION_ERROR, got %s", auditerr.CodeOf(err))
	}
	if report == nil || report.Status != StatusFailed {
		t.Error("a failed run should still produce a minimal failed record")
	}
}

func TestAuditContractModelFailureFailsRun(t *testing.T) {
	model := &stubModel{err: auditerr.New(auditerr.AnalysisUnavailable, "model analyzer unreachable")}
	p := newTestPipeline(okStatic(), model, nil, nil)

	report, err := p.AuditContract(context.Background(), testSource, Options{})
	if err == nil {
		t.Fatal("model failure must fail the whole run, never a partial static-only report")
	}
	if auditerr.CodeOf(err) != auditerr.AnalysisUnavailable {
		t.Errorf("expected ANALYSIS_UNAVAILABLE, got %s", auditerr.CodeOf(err))
	}
	if report.Status != StatusFailed {
		t.Errorf("expected failed status, got %s", report.Status)
	}
}

func TestAuditContractStaticFailureFailsRun(t *testing.T) {
	static := &stubStatic{err: errors.New("tokenizer blew up")}
	p := newTestPipeline(static, okModel(), nil, nil)

	_, err := p.AuditContract(context.Background(), testSource, Options{})
	if err == nil {
		t.Fatal("static failure must fail the run")
	}
	if auditerr.CodeOf(err) != auditerr.Parse {
		t.Errorf("plain static errors should coerce to PARSE_ERROR, got %s", auditerr.CodeOf(err))
	}
}

func TestAuditContractCancellation(t *testing.T) {
	model := &stubModel{res: okModel().res, delay: 5 * time.Second}
	p := newTestPipeline(okStatic(), model, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	report, err := p.AuditContract(ctx, testSource, Options{})
	if err == nil {
		t.Fatal("cancelled run should not complete")
	}
	if report.Status != StatusFailed {
		t.Error("cancelled run should report failed, never a partial report")
	}
}

func TestAuditContractPersistenceFailureDoesNotFailRun(t *testing.T) {
	store := newStubStore()
	store.err = errors.New("disk full")
	p := newTestPipeline(okStatic(), okModel(), nil, store)

	report, err := p.AuditContract(context.Background(), testSource, Options{})
	if err != nil {
		t.Fatalf("persistence failure must not fail the audit: %v", err)
	}
	if report.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", report.Status)
	}
	<-store.saved
}

func TestAuditAddressFullAnalysisWhenVerified(t *testing.T) {
	chain := &stubChain{contract: &ChainContract{
		SourceCode:   testSource,
		ContractName: "Tether",
		Bytecode:     "0x6080",
	}}
	p := newTestPipeline(okStatic(), okModel(), chain, nil)

	report, err := p.AuditAddress(context.Background(), testAddress, "ethereum", Options{})
	if err != nil {
		t.Fatalf("verified address audit should complete: %v", err)
	}
	if report.Type != TypeFullAnalysis {
		t.Errorf("expected full-analysis, got %s", report.Type)
	}
	if report.ContractInfo.Address != testAddress || report.ContractInfo.Chain != "ethereum" {
		t.Errorf("contract info should carry address and chain: %+v", report.ContractInfo)
	}
}

func TestAuditAddressBytecodeFallback(t *testing.T) {
	chain := &stubChain{contract: &ChainContract{Bytecode: "0x608060405256fff1"}}
	p := newTestPipeline(okStatic(), okModel(), chain, nil)

	report, err := p.AuditAddress(context.Background(), testAddress, "ethereum", Options{})
	if err != nil {
		t.Fatalf("bytecode fallback should complete: %v", err)
	}
	if report.Type != TypeBytecodeOnly {
		t.Errorf("expected bytecode-only type, got %s", report.Type)
	}
	if report.OverallScore != 60 {
		t.Errorf("bytecode-only score must be exactly 60, got %d", report.OverallScore)
	}
	if report.RiskLevel != RiskMedium {
		t.Errorf("bytecode-only risk must be Medium, got %s", report.RiskLevel)
	}
	if report.SeverityCounts.Total() != len(report.Findings) {
		t.Error("severity counts must sum to findings length on the fallback path too")
	}
	if len(report.Recommendations) == 0 {
		t.Error("bytecode-only report should urge source verification")
	}
}

func TestAuditAddressConstantScoreRegardlessOfBytecode(t *testing.T) {
	for _, bytecode := range []string{"0x60", "0x" + strings.Repeat("ff", 500)} {
		chain := &stubChain{contract: &ChainContract{Bytecode: bytecode}}
		p := newTestPipeline(okStatic(), okModel(), chain, nil)

		report, err := p.AuditAddress(context.Background(), testAddress, "ethereum", Options{})
		if err != nil {
			t.Fatal(err)
		}
		if report.OverallScore != 60 {
			t.Errorf("score must be 60 for bytecode %q, got %d", bytecode[:4], report.OverallScore)
		}
	}
}

func TestAuditAddressNoCode(t *testing.T) {
	chain := &stubChain{contract: &ChainContract{Bytecode: "0x"}}
	p := newTestPipeline(okStatic(), okModel(), chain, nil)

	_, err := p.AuditAddress(context.Background(), testAddress, "ethereum", Options{})
	if auditerr.CodeOf(err) != auditerr.ContractNotFound {
		t.Errorf("expected CONTRACT_NOT_FOUND, got %v", err)
	}
}

func TestAuditAddressUnsupportedChain(t *testing.T) {
	p := newTestPipeline(okStatic(), okModel(), &stubChain{}, nil)

	_, err := p.AuditAddress(context.Background(), testAddress, "dogecoin", Options{})
	if auditerr.CodeOf(err) != auditerr.UnsupportedChain {
		t.Errorf("expected UNSUPPORTED_CHAIN, got %v", err)
	}
}

func TestAuditAddressInvalidAddress(t *testing.T) {
	p := newTestPipeline(okStatic(), okModel(), &stubChain{}, nil)

	_, err := p.AuditAddress(context.Background(), "0x1234", "ethereum", Options{})
	if auditerr.CodeOf(err) != auditerr.Validation {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestAuditIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewAuditID()
		if seen[id] {
			t.Fatalf("duplicate audit id: %s", id)
		}
		seen[id] = true
	}
}
