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

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/jeremyhahn/go-bucketadmin/pkg/metadb"
)

// Filter narrows an audit listing. Zero values mean "any".
type Filter struct {
	OperationType string
	Bucket        string
	Status        Result
	Actor         string
	Since         time.Time
	Until         time.Time

	// SortBy must be one of the allow-listed column names; anything else
	// falls back to "timestamp". The allow-list is what keeps a
	// caller-supplied sort parameter from reaching the SQL text.
	SortBy   string
	SortDesc bool

	Limit  int
	Offset int
}

// sortColumns is the allow-list of ORDER BY columns.
var sortColumns = map[string]bool{
	"id":             true,
	"timestamp":      true,
	"operation_type": true,
	"bucket":         true,
	"actor":          true,
	"status":         true,
	"size_bytes":     true,
}

// List returns audit entries matching the filter. A missing table reads as
// an empty history.
func (r *Recorder) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	query := strings.Builder{}
	query.WriteString(
		`SELECT id, operation_type, bucket, object_key, actor, status,
		        timestamp, size_bytes, dest_bucket, dest_key, metadata
		 FROM audit_log WHERE 1=1`)

	var args []any
	if filter.OperationType != "" {
		query.WriteString(" AND operation_type = ?")
		args = append(args, filter.OperationType)
	}
	if filter.Bucket != "" {
		query.WriteString(" AND bucket = ?")
		args = append(args, filter.Bucket)
	}
	if filter.Status != "" {
		query.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Actor != "" {
		query.WriteString(" AND actor = ?")
		args = append(args, filter.Actor)
	}
	if !filter.Since.IsZero() {
		query.WriteString(" AND timestamp >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query.WriteString(" AND timestamp <= ?")
		args = append(args, filter.Until)
	}

	sortBy := filter.SortBy
	if !sortColumns[sortBy] {
		sortBy = "timestamp"
	}
	query.WriteString(" ORDER BY " + sortBy)
	if filter.SortDesc {
		query.WriteString(" DESC")
	} else {
		query.WriteString(" ASC")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		if metadb.IsMissingTable(err) {
			return []*Entry{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SummaryRow aggregates entry counts for one operation type and status.
type SummaryRow struct {
	OperationType string `json:"operation_type"`
	Status        Result `json:"status"`
	Count         int64  `json:"count"`
}

// Summary aggregates the audit log by operation type and status within the
// optional time range.
func (r *Recorder) Summary(ctx context.Context, since, until time.Time) ([]*SummaryRow, error) {
	query := strings.Builder{}
	query.WriteString(
		`SELECT operation_type, status, COUNT(*)
		 FROM audit_log WHERE 1=1`)

	var args []any
	if !since.IsZero() {
		query.WriteString(" AND timestamp >= ?")
		args = append(args, since)
	}
	if !until.IsZero() {
		query.WriteString(" AND timestamp <= ?")
		args = append(args, until)
	}
	query.WriteString(" GROUP BY operation_type, status ORDER BY operation_type, status")

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		if metadb.IsMissingTable(err) {
			return []*SummaryRow{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	summary := make([]*SummaryRow, 0)
	for rows.Next() {
		row := &SummaryRow{}
		var status string
		if err := rows.Scan(&row.OperationType, &status, &row.Count); err != nil {
			return nil, err
		}
		row.Status = Result(status)
		summary = append(summary, row)
	}
	return summary, rows.Err()
}

func scanEntry(rows *sql.Rows) (*Entry, error) {
	entry := &Entry{}
	var (
		bucket, key, destBucket, destKey, meta sql.NullString
		status                                 string
		size                                   sql.NullInt64
	)

	err := rows.Scan(&entry.ID, &entry.OperationType, &bucket, &key,
		&entry.Actor, &status, &entry.Timestamp, &size, &destBucket,
		&destKey, &meta)
	if err != nil {
		return nil, err
	}

	entry.Bucket = bucket.String
	entry.ObjectKey = key.String
	entry.Status = Result(status)
	entry.SizeBytes = size.Int64
	entry.DestBucket = destBucket.String
	entry.DestKey = destKey.String

	if meta.Valid && meta.String != "" {
		//nolint:errcheck // stored metadata is our own writes
		json.Unmarshal([]byte(meta.String), &entry.Metadata)
	}

	return entry, nil
}
