package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solaudit/internal/auditerr"
	"solaudit/internal/chains"
	"solaudit/internal/config"
	"solaudit/internal/logging"
)

// Options carries per-request audit options
type Options struct {
	// ContractName overrides the name detected from the source
	ContractName string `json:"contractName,omitempty"`
}

// Pipeline runs audits. It is stateless across runs: all per-run state lives
// on the stack, so one instance can serve concurrent requests.
type Pipeline struct {
	validator *Validator
	scorer    *Scorer
	static    StaticAnalyzer
	model     ModelAnalyzer
	chain     ChainReader
	registry  *chains.Registry
	store     Persistence
	logger    *logging.Logger
}

// NewPipeline wires the audit pipeline from its collaborators.
// store may be nil, in which case reports are not persisted.
func NewPipeline(cfg *config.Config, static StaticAnalyzer, model ModelAnalyzer, chain ChainReader, registry *chains.Registry, store Persistence, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		validator: NewValidator(cfg.Limits.MaxSourceBytes),
		scorer:    NewScorer(cfg.Scoring),
		static:    static,
		model:     model,
		chain:     chain,
		registry:  registry,
		store:     store,
		logger:    logger,
	}
}

// AuditContract runs the full pipeline over submitted source code
func (p *Pipeline) AuditContract(ctx context.Context, code string, opts Options) (*AuditReport, error) {
	started := time.Now()
	auditID := NewAuditID()

	if err := p.validator.ValidateSource(code); err != nil {
		return p.fail(auditID, err)
	}

	return p.runFullAnalysis(ctx, auditID, code, ContractInfo{Name: opts.ContractName}, started)
}

// AuditAddress resolves an on-chain address and audits its source, falling
// back to bytecode analysis when no verified source is available
func (p *Pipeline) AuditAddress(ctx context.Context, address, chainID string, opts Options) (*AuditReport, error) {
	started := time.Now()
	auditID := NewAuditID()

	if err := p.validator.ValidateAddress(address); err != nil {
		return p.fail(auditID, err)
	}

	chain, err := p.registry.Get(chainID)
	if err != nil {
		return p.fail(auditID, err)
	}

	contract, err := p.chain.Fetch(ctx, address, chain)
	if err != nil {
		return p.fail(auditID, coerce(err, auditerr.Internal, "failed to read contract from chain"))
	}

	if contract.Bytecode == "" || contract.Bytecode == "0x" {
		return p.fail(auditID, auditerr.New(auditerr.ContractNotFound,
			fmt.Sprintf("no contract code at %s on %s", address, chainID)))
	}

	info := ContractInfo{
		Name:    contract.ContractName,
		Address: address,
		Chain:   chainID,
	}
	if opts.ContractName != "" {
		info.Name = opts.ContractName
	}

	if contract.SourceCode == "" {
		// No verified source: reduced-confidence bytecode path, constant score
		analysis := AnalyzeBytecode(contract.Bytecode)
		report := assembleBytecodeReport(auditID, info, analysis, started)
		p.persist(report, "")
		p.logger.Info("bytecode-only audit completed", map[string]interface{}{
			"auditId": auditID,
			"address": address,
			"chain":   chainID,
			"size":    analysis.Size,
		})
		return report, nil
	}

	return p.runFullAnalysis(ctx, auditID, contract.SourceCode, info, started)
}

type staticOutcome struct {
	res *StaticResult
	err error
}

type modelOutcome struct {
	res *ModelResult
	err error
}

// runFullAnalysis executes the Analyzing, Combining, Scoring and Assembling
// stages. The two analyzer calls are independent and issued concurrently;
// combining waits for both. A model failure fails the whole run: a static-only
// report would understate risk inconsistently between runs.
func (p *Pipeline) runFullAnalysis(ctx context.Context, auditID, code string, info ContractInfo, started time.Time) (*AuditReport, error) {
	staticCh := make(chan staticOutcome, 1)
	modelCh := make(chan modelOutcome, 1)

	go func() {
		res, err := p.static.Parse(ctx, code)
		staticCh <- staticOutcome{res: res, err: err}
	}()
	go func() {
		res, err := p.model.Analyze(ctx, code, nil)
		modelCh <- modelOutcome{res: res, err: err}
	}()

	var sres *StaticResult
	var mres *ModelResult
	for i := 0; i < 2; i++ {
		select {
		case s := <-staticCh:
			if s.err != nil {
				return p.fail(auditID, coerce(s.err, auditerr.Parse, "static analysis failed"))
			}
			sres = s.res
		case m := <-modelCh:
			if m.err != nil {
				return p.fail(auditID, coerce(m.err, auditerr.AnalysisUnavailable, "model analysis failed"))
			}
			mres = m.res
		case <-ctx.Done():
			return p.fail(auditID, auditerr.Wrap(auditerr.Internal, "audit cancelled", ctx.Err()))
		}
	}

	findings := Combine(sres.Findings, mres.Vulnerabilities)
	score := p.scorer.Score(findings)

	if info.Name == "" {
		info.Name = sres.Metrics.ContractName
	}
	info.FunctionCount = sres.Metrics.FunctionCount
	info.ModifierCount = sres.Metrics.ModifierCount
	info.EventCount = sres.Metrics.EventCount
	info.Complexity = sres.Metrics.Complexity
	info.LinesOfCode = sres.Metrics.LinesOfCode

	recommendations := make([]string, 0, len(mres.Recommendations)+len(mres.GasOptimizations))
	recommendations = append(recommendations, mres.Recommendations...)
	for _, g := range mres.GasOptimizations {
		recommendations = append(recommendations, "Gas optimization: "+g)
	}

	summary := buildSummary(mres.Summary, score.Counts, score.Overall)
	report := assembleReport(auditID, info, findings, score, summary, recommendations, started)

	p.persist(report, code)
	p.logger.Info("audit completed", map[string]interface{}{
		"auditId":   auditID,
		"score":     report.OverallScore,
		"riskLevel": report.RiskLevel,
		"findings":  len(report.Findings),
	})
	return report, nil
}

// fail produces the minimal failed record, persists it best-effort, and
// surfaces the error to the caller
func (p *Pipeline) fail(auditID string, err error) (*AuditReport, error) {
	report := failedReport(auditID, err)
	p.persist(report, "")
	p.logger.Warn("audit failed", map[string]interface{}{
		"auditId": auditID,
		"code":    string(auditerr.CodeOf(err)),
		"error":   err.Error(),
	})
	return report, err
}

// persist hands the report to the persistence collaborator off the critical
// path. Persistence failures are logged and discarded.
func (p *Pipeline) persist(report *AuditReport, source string) {
	if p.store == nil {
		return
	}
	go func() {
		if err := p.store.SaveReport(report, source); err != nil {
			p.logger.Warn("failed to persist audit report", map[string]interface{}{
				"auditId": report.AuditID,
				"error":   err.Error(),
			})
		}
	}()
}

// coerce wraps plain errors with a stable code, leaving coded errors intact
func coerce(err error, code auditerr.Code, message string) error {
	var ae *auditerr.Error
	if errors.As(err, &ae) {
		return err
	}
	return auditerr.Wrap(code, message, err)
}
