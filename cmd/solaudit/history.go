package main

import (
	"fmt"

	"solaudit/internal/storage"

	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyStatus string
	historyRisk   string
	historyChain  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past audits",
	RunE:  runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate audit statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of audits to show")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "Filter by status (completed, failed)")
	historyCmd.Flags().StringVar(&historyRisk, "risk", "", "Filter by risk level")
	historyCmd.Flags().StringVar(&historyChain, "chain", "", "Filter by chain")
}

func openHistoryDB() (*storage.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.Open(cfg.Storage.Path, newLogger(cfg))
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := openHistoryDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.ListReports(storage.ReportFilter{
		Status:    historyStatus,
		RiskLevel: historyRisk,
		Chain:     historyChain,
	}, historyLimit, 0)
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Println("No audits recorded")
		return nil
	}

	for _, r := range reports {
		name := r.ContractName
		if name == "" {
			name = "-"
		}
		fmt.Printf("%s  %s  %-9s  score=%-3d  %-8s  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.AuditID, r.Status, r.OverallScore, r.RiskLevel, name)
	}

	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	db, err := openHistoryDB()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetStatistics()
	if err != nil {
		return err
	}

	fmt.Printf("Total audits:   %d (%d completed, %d failed)\n",
		stats.TotalAudits, stats.CompletedRuns, stats.FailedRuns)
	fmt.Printf("Average score:  %.1f\n", stats.AverageScore)
	fmt.Printf("Total findings: %d\n", stats.TotalFindings)

	if len(stats.RiskBreakdown) > 0 {
		fmt.Println("By risk level:")
		for _, level := range []string{"Critical", "High", "Medium", "Low"} {
			if n, ok := stats.RiskBreakdown[level]; ok {
				fmt.Printf("  %-8s %d\n", level, n)
			}
		}
	}
	if len(stats.AuditsByChain) > 0 {
		fmt.Println("By chain:")
		for chain, n := range stats.AuditsByChain {
			fmt.Printf("  %-12s %d\n", chain, n)
		}
	}
	if stats.LastAuditAt != nil {
		fmt.Printf("Last audit:     %s\n", stats.LastAuditAt.Format("2006-01-02 15:04"))
	}

	return nil
}
