// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-bucketadmin.
//
// go-bucketadmin is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metadb opens and migrates the SQLite metadata store holding job
// and audit history. The metadata store is observability data, not the
// source of truth for the objects themselves: callers must treat failures
// here as best-effort logging, never as a reason to abort a transfer.
package metadb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Pure-Go SQLite driver, no CGO required.
	_ "modernc.org/sqlite"
)

// Open opens (creating if necessary) the metadata database at path and
// applies migrations. Use ":memory:" for an ephemeral store.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create metadata db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata db: %w", err)
	}

	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent request handlers.
	db.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the job and audit tables if they do not exist.
func Migrate(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS transfer_jobs (
			id TEXT PRIMARY KEY,
			bucket TEXT NOT NULL,
			operation_type TEXT NOT NULL,
			status TEXT NOT NULL,
			total_items INTEGER,
			processed_items INTEGER NOT NULL DEFAULT 0,
			error_count INTEGER NOT NULL DEFAULT 0,
			percentage REAL NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			owner TEXT NOT NULL,
			error_message TEXT,
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transfer_jobs_status ON transfer_jobs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_transfer_jobs_started ON transfer_jobs(started_at)`,
		`CREATE TABLE IF NOT EXISTS job_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			job_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			owner TEXT,
			timestamp TIMESTAMP NOT NULL,
			details TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_events_job ON job_events(job_id)`,
		`CREATE TABLE IF NOT EXISTS audit_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation_type TEXT NOT NULL,
			bucket TEXT,
			object_key TEXT,
			actor TEXT NOT NULL,
			status TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			size_bytes INTEGER,
			dest_bucket TEXT,
			dest_key TEXT,
			metadata TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_actor ON audit_log(actor)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// IsMissingTable reports whether err means a table has not been created
// yet. Readers treat this as an empty result set rather than a fatal error.
func IsMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
