package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"solaudit/internal/audit"
)

// ReportFilter narrows history queries. Zero values match everything.
type ReportFilter struct {
	Status    string
	RiskLevel string
	Chain     string
}

// ReportSummary is the compact history row returned by ListReports
type ReportSummary struct {
	AuditID       string    `json:"auditId"`
	CreatedAt     time.Time `json:"createdAt"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	ContractName  string    `json:"contractName,omitempty"`
	Chain         string    `json:"chain,omitempty"`
	Address       string    `json:"address,omitempty"`
	OverallScore  int       `json:"overallScore"`
	RiskLevel     string    `json:"riskLevel"`
	FindingCount  int       `json:"findingCount"`
	CriticalCount int       `json:"criticalCount"`
	HighCount     int       `json:"highCount"`
}

// Statistics aggregates the stored audit history
type Statistics struct {
	TotalAudits   int            `json:"totalAudits"`
	CompletedRuns int            `json:"completedRuns"`
	FailedRuns    int            `json:"failedRuns"`
	AverageScore  float64        `json:"averageScore"`
	RiskBreakdown map[string]int `json:"riskBreakdown"`
	TotalFindings int            `json:"totalFindings"`
	AuditsByChain map[string]int `json:"auditsByChain"`
	LastAuditAt   *time.Time     `json:"lastAuditAt,omitempty"`
}

// SaveReport persists a finished report together with a compressed snapshot
// of the audited source. Implements audit.Persistence.
func (db *DB) SaveReport(report *audit.AuditReport, source string) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	snapshot := db.compress(source)

	return db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT OR REPLACE INTO audit_reports (
				audit_id, created_at, status, type, contract_name, chain, address,
				overall_score, risk_level,
				critical_count, high_count, medium_count, low_count,
				report_json, source_snapshot
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.AuditID,
			report.Timestamp.UTC().Format(time.RFC3339),
			string(report.Status),
			string(report.Type),
			report.ContractInfo.Name,
			report.ContractInfo.Chain,
			report.ContractInfo.Address,
			report.OverallScore,
			string(report.RiskLevel),
			report.SeverityCounts.Critical,
			report.SeverityCounts.High,
			report.SeverityCounts.Medium,
			report.SeverityCounts.Low,
			reportJSON,
			snapshot,
		)
		if err != nil {
			return fmt.Errorf("failed to insert report: %w", err)
		}
		return nil
	})
}

// GetReport loads a full report by audit ID. Returns (nil, "", nil) when the
// ID is unknown.
func (db *DB) GetReport(auditID string) (*audit.AuditReport, string, error) {
	var reportJSON []byte
	var snapshot []byte

	err := db.conn.QueryRow(`
		SELECT report_json, source_snapshot FROM audit_reports WHERE audit_id = ?`,
		auditID,
	).Scan(&reportJSON, &snapshot)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to query report: %w", err)
	}

	var report audit.AuditReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal report: %w", err)
	}

	source, err := db.decompress(snapshot)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decompress source snapshot: %w", err)
	}

	return &report, source, nil
}

// ListReports returns history rows newest-first, filtered and paginated
func (db *DB) ListReports(filter ReportFilter, limit, offset int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.RiskLevel != "" {
		conditions = append(conditions, "risk_level = ?")
		args = append(args, filter.RiskLevel)
	}
	if filter.Chain != "" {
		conditions = append(conditions, "chain = ?")
		args = append(args, filter.Chain)
	}

	query := `
		SELECT audit_id, created_at, status, type, contract_name, chain, address,
		       overall_score, risk_level,
		       critical_count + high_count + medium_count + low_count,
		       critical_count, high_count
		FROM audit_reports`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	summaries := make([]ReportSummary, 0, limit)
	for rows.Next() {
		var s ReportSummary
		var createdAt string
		if err := rows.Scan(
			&s.AuditID, &createdAt, &s.Status, &s.Type,
			&s.ContractName, &s.Chain, &s.Address,
			&s.OverallScore, &s.RiskLevel,
			&s.FindingCount, &s.CriticalCount, &s.HighCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			s.CreatedAt = t
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetStatistics aggregates stored history into a single snapshot
func (db *DB) GetStatistics() (*Statistics, error) {
	stats := &Statistics{
		RiskBreakdown: make(map[string]int),
		AuditsByChain: make(map[string]int),
	}

	err := db.conn.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(critical_count + high_count + medium_count + low_count), 0)
		FROM audit_reports`,
	).Scan(&stats.TotalAudits, &stats.CompletedRuns, &stats.FailedRuns, &stats.TotalFindings)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate counts: %w", err)
	}

	if stats.CompletedRuns > 0 {
		err = db.conn.QueryRow(`
			SELECT AVG(overall_score) FROM audit_reports WHERE status = 'completed'`,
		).Scan(&stats.AverageScore)
		if err != nil {
			return nil, fmt.Errorf("failed to compute average score: %w", err)
		}
	}

	rows, err := db.conn.Query(`
		SELECT risk_level, COUNT(*) FROM audit_reports
		WHERE status = 'completed' GROUP BY risk_level`)
	if err != nil {
		return nil, fmt.Errorf("failed to query risk breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		stats.RiskBreakdown[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	chainRows, err := db.conn.Query(`
		SELECT chain, COUNT(*) FROM audit_reports
		WHERE chain != '' GROUP BY chain`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain breakdown: %w", err)
	}
	defer chainRows.Close()
	for chainRows.Next() {
		var chain string
		var count int
		if err := chainRows.Scan(&chain, &count); err != nil {
			return nil, err
		}
		stats.AuditsByChain[chain] = count
	}
	if err := chainRows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullString
	err = db.conn.QueryRow(`SELECT MAX(created_at) FROM audit_reports`).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query last audit time: %w", err)
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			stats.LastAuditAt = &t
		}
	}

	return stats, nil
}
