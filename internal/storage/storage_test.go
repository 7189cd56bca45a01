package storage

import (
	"io"
	"testing"
	"time"

	"solaudit/internal/audit"
	"solaudit/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	logger := logging.NewLogger(logging.Config{
		Format: logging.JSONFormat,
		Level:  logging.ErrorLevel,
		Output: io.Discard,
	})
	db, err := Open(":memory:", logger)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReport(auditID string) *audit.AuditReport {
	return &audit.AuditReport{
		AuditID: auditID,
		Status:  audit.StatusCompleted,
		Type:    audit.TypeFullAnalysis,
		ContractInfo: audit.ContractInfo{
			Name:          "Vault",
			FunctionCount: 3,
			LinesOfCode:   42,
			Chain:         "ethereum",
			Address:       "0xdAC17F958D2ee523a2206206994597C13D831ec7",
		},
		Findings: []audit.Finding{
			{Name: "Reentrancy", Severity: audit.SeverityHigh, Category: "reentrancy", AffectedLines: []int{14}, Source: audit.SourceStatic},
		},
		OverallScore:    75,
		RiskLevel:       audit.RiskMedium,
		SeverityCounts:  audit.SeverityCounts{High: 1},
		Summary:         "1 finding",
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMs: 120,
	}
}

func TestSaveAndGetReport(t *testing.T) {
	db := testDB(t)

	source := "contract Vault { function withdraw() public {} }"
	report := sampleReport("audit_1_aaa")
	if err := db.SaveReport(report, source); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	got, gotSource, err := db.GetReport("audit_1_aaa")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected report, got nil")
	}
	if got.AuditID != report.AuditID {
		t.Errorf("AuditID = %q, want %q", got.AuditID, report.AuditID)
	}
	if got.OverallScore != 75 {
		t.Errorf("OverallScore = %d, want 75", got.OverallScore)
	}
	if len(got.Findings) != 1 || got.Findings[0].Category != "reentrancy" {
		t.Errorf("findings not round-tripped: %+v", got.Findings)
	}
	if gotSource != source {
		t.Errorf("source snapshot = %q, want %q", gotSource, source)
	}
}

func TestGetReportUnknownID(t *testing.T) {
	db := testDB(t)

	got, source, err := db.GetReport("audit_missing")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got != nil || source != "" {
		t.Errorf("expected nil report for unknown ID, got %+v", got)
	}
}

func TestSaveReportEmptySource(t *testing.T) {
	db := testDB(t)

	report := sampleReport("audit_2_bbb")
	report.Type = audit.TypeBytecodeOnly
	if err := db.SaveReport(report, ""); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	got, source, err := db.GetReport("audit_2_bbb")
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected report, got nil")
	}
	if source != "" {
		t.Errorf("expected empty source, got %q", source)
	}
}

func TestListReportsOrderingAndPagination(t *testing.T) {
	db := testDB(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := sampleReport("audit_list_" + string(rune('a'+i)))
		r.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := db.SaveReport(r, "contract A {}"); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}

	rows, err := db.ListReports(ReportFilter{}, 2, 0)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].AuditID != "audit_list_e" {
		t.Errorf("expected newest first, got %q", rows[0].AuditID)
	}

	page2, err := db.ListReports(ReportFilter{}, 2, 2)
	if err != nil {
		t.Fatalf("ListReports failed: %v", err)
	}
	if len(page2) != 2 || page2[0].AuditID != "audit_list_c" {
		t.Errorf("pagination broken: %+v", page2)
	}
}

func TestListReportsFilters(t *testing.T) {
	db := testDB(t)

	completed := sampleReport("audit_f_1")
	if err := db.SaveReport(completed, ""); err != nil {
		t.Fatal(err)
	}

	failed := sampleReport("audit_f_2")
	failed.Status = audit.StatusFailed
	failed.RiskLevel = audit.RiskCritical
	failed.ContractInfo.Chain = "polygon"
	if err := db.SaveReport(failed, ""); err != nil {
		t.Fatal(err)
	}

	byStatus, err := db.ListReports(ReportFilter{Status: "failed"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(byStatus) != 1 || byStatus[0].AuditID != "audit_f_2" {
		t.Errorf("status filter: %+v", byStatus)
	}

	byRisk, err := db.ListReports(ReportFilter{RiskLevel: "Medium"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(byRisk) != 1 || byRisk[0].AuditID != "audit_f_1" {
		t.Errorf("risk filter: %+v", byRisk)
	}

	byChain, err := db.ListReports(ReportFilter{Chain: "polygon"}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(byChain) != 1 || byChain[0].AuditID != "audit_f_2" {
		t.Errorf("chain filter: %+v", byChain)
	}
}

func TestSaveReportUpsert(t *testing.T) {
	db := testDB(t)

	report := sampleReport("audit_up_1")
	if err := db.SaveReport(report, "v1"); err != nil {
		t.Fatal(err)
	}
	report.OverallScore = 40
	if err := db.SaveReport(report, "v2"); err != nil {
		t.Fatal(err)
	}

	got, source, err := db.GetReport("audit_up_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.OverallScore != 40 {
		t.Errorf("expected replaced report, score = %d", got.OverallScore)
	}
	if source != "v2" {
		t.Errorf("expected replaced snapshot, got %q", source)
	}

	rows, err := db.ListReports(ReportFilter{}, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row after upsert, got %d", len(rows))
	}
}

func TestStatistics(t *testing.T) {
	db := testDB(t)

	stats, err := db.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.TotalAudits != 0 || stats.AverageScore != 0 || stats.LastAuditAt != nil {
		t.Errorf("empty stats: %+v", stats)
	}

	a := sampleReport("audit_s_1") // completed, score 75, Medium, ethereum
	if err := db.SaveReport(a, ""); err != nil {
		t.Fatal(err)
	}

	b := sampleReport("audit_s_2")
	b.OverallScore = 25
	b.RiskLevel = audit.RiskCritical
	b.SeverityCounts = audit.SeverityCounts{Critical: 1, High: 1}
	b.ContractInfo.Chain = "polygon"
	if err := db.SaveReport(b, ""); err != nil {
		t.Fatal(err)
	}

	c := sampleReport("audit_s_3")
	c.Status = audit.StatusFailed
	c.OverallScore = 0
	c.SeverityCounts = audit.SeverityCounts{}
	c.ContractInfo.Chain = ""
	if err := db.SaveReport(c, ""); err != nil {
		t.Fatal(err)
	}

	stats, err = db.GetStatistics()
	if err != nil {
		t.Fatalf("GetStatistics failed: %v", err)
	}
	if stats.TotalAudits != 3 {
		t.Errorf("TotalAudits = %d, want 3", stats.TotalAudits)
	}
	if stats.CompletedRuns != 2 || stats.FailedRuns != 1 {
		t.Errorf("runs = %d/%d, want 2/1", stats.CompletedRuns, stats.FailedRuns)
	}
	if stats.AverageScore != 50 {
		t.Errorf("AverageScore = %v, want 50", stats.AverageScore)
	}
	if stats.RiskBreakdown["Medium"] != 1 || stats.RiskBreakdown["Critical"] != 1 {
		t.Errorf("RiskBreakdown = %+v", stats.RiskBreakdown)
	}
	if stats.TotalFindings != 3 {
		t.Errorf("TotalFindings = %d, want 3", stats.TotalFindings)
	}
	if stats.AuditsByChain["ethereum"] != 1 || stats.AuditsByChain["polygon"] != 1 {
		t.Errorf("AuditsByChain = %+v", stats.AuditsByChain)
	}
	if stats.LastAuditAt == nil {
		t.Error("expected LastAuditAt to be set")
	}
}
