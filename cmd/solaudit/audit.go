package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solaudit/internal/audit"

	"github.com/spf13/cobra"
)

var (
	auditAddress string
	auditChain   string
	auditName    string
	auditJSON    bool
	auditSave    bool
)

var auditCmd = &cobra.Command{
	Use:   "audit [file.sol]",
	Short: "Audit a contract from a source file or a chain address",
	Long: `Run a one-shot audit. Pass a Solidity source file, or use --address
to audit a deployed contract. Address audits fall back to bytecode-level
analysis when no verified source is available.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditAddress, "address", "", "Deployed contract address (0x...)")
	auditCmd.Flags().StringVar(&auditChain, "chain", "ethereum", "Chain ID for address audits")
	auditCmd.Flags().StringVar(&auditName, "name", "", "Contract name override")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print the full report as JSON")
	auditCmd.Flags().BoolVar(&auditSave, "save", false, "Persist the report to audit history")
}

func runAudit(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && auditAddress == "" {
		return fmt.Errorf("provide a source file or --address")
	}
	if len(args) > 0 && auditAddress != "" {
		return fmt.Errorf("provide either a source file or --address, not both")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	pipeline, _, _, cleanup, err := buildPipeline(cmd.Context(), cfg, logger, auditSave)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := audit.Options{ContractName: auditName}

	var report *audit.AuditReport
	if auditAddress != "" {
		report, err = pipeline.AuditAddress(cmd.Context(), auditAddress, auditChain, opts)
	} else {
		data, readErr := os.ReadFile(args[0])
		if readErr != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], readErr)
		}
		if opts.ContractName == "" {
			opts.ContractName = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		report, err = pipeline.AuditContract(cmd.Context(), string(data), opts)
	}
	if err != nil {
		return err
	}

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printReportSummary(report)
	return nil
}

// printReportSummary renders a compact human-readable report
func printReportSummary(r *audit.AuditReport) {
	fmt.Printf("Audit %s (%s)\n", r.AuditID, r.Type)
	if r.ContractInfo.Name != "" {
		fmt.Printf("Contract: %s\n", r.ContractInfo.Name)
	}
	if r.ContractInfo.Address != "" {
		fmt.Printf("Address:  %s (%s)\n", r.ContractInfo.Address, r.ContractInfo.Chain)
	}
	fmt.Printf("Score:    %d/100 (risk: %s)\n", r.OverallScore, r.RiskLevel)
	fmt.Printf("Findings: %d critical, %d high, %d medium, %d low\n",
		r.SeverityCounts.Critical, r.SeverityCounts.High,
		r.SeverityCounts.Medium, r.SeverityCounts.Low)

	if len(r.Findings) > 0 {
		fmt.Println()
		for _, f := range r.Findings {
			lines := make([]string, len(f.AffectedLines))
			for i, l := range f.AffectedLines {
				lines[i] = fmt.Sprintf("%d", l)
			}
			loc := ""
			if len(lines) > 0 {
				loc = " (line " + strings.Join(lines, ", ") + ")"
			}
			fmt.Printf("  [%s] %s%s\n", f.Severity, f.Name, loc)
		}
	}

	if r.Summary != "" {
		fmt.Println()
		fmt.Println(r.Summary)
	}
	if len(r.Recommendations) > 0 {
		fmt.Println()
		fmt.Println("Recommendations:")
		for _, rec := range r.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
}
