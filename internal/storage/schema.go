package storage

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// initializeSchema creates tables if they don't exist and records the
// schema version for future migrations.
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		statements := []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at TEXT NOT NULL DEFAULT (datetime('now'))
			)`,
			`CREATE TABLE IF NOT EXISTS audit_reports (
				audit_id TEXT PRIMARY KEY,
				created_at TEXT NOT NULL,
				status TEXT NOT NULL,
				type TEXT NOT NULL,
				contract_name TEXT,
				chain TEXT,
				address TEXT,
				overall_score INTEGER NOT NULL,
				risk_level TEXT NOT NULL,
				critical_count INTEGER NOT NULL DEFAULT 0,
				high_count INTEGER NOT NULL DEFAULT 0,
				medium_count INTEGER NOT NULL DEFAULT 0,
				low_count INTEGER NOT NULL DEFAULT 0,
				report_json BLOB NOT NULL,
				source_snapshot BLOB
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_created ON audit_reports(created_at DESC)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_status ON audit_reports(status)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_risk ON audit_reports(risk_level)`,
			`CREATE INDEX IF NOT EXISTS idx_reports_chain ON audit_reports(chain)`,
		}

		for _, stmt := range statements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to execute schema statement: %w", err)
			}
		}

		var current int
		err := tx.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		if current < schemaVersion {
			if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
				return fmt.Errorf("failed to record schema version: %w", err)
			}
		}

		return nil
	})
}
