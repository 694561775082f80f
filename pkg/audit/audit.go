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

// Package audit records one immutable entry per discrete user-facing
// operation, independent of job bookkeeping, for compliance and history
// browsing. Entries are append-only and never deleted.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
)

// Result represents the outcome of an audited operation.
type Result string

const (
	// ResultSuccess indicates the operation succeeded.
	ResultSuccess Result = "success"

	// ResultFailure indicates the operation failed.
	ResultFailure Result = "failed"
)

// Entry is a single audit log record.
type Entry struct {
	// ID is the auto-increment row id.
	ID int64 `json:"id"`

	// OperationType names the discrete action (e.g. "file_move").
	OperationType string `json:"operation_type"`

	// Bucket is the bucket acted upon, if applicable.
	Bucket string `json:"bucket,omitempty"`

	// ObjectKey is the object acted upon, if applicable.
	ObjectKey string `json:"object_key,omitempty"`

	// Actor is the validated identity that performed the action.
	Actor string `json:"actor"`

	// Status is success or failed.
	Status Result `json:"status"`

	// Timestamp is when the action completed.
	Timestamp time.Time `json:"timestamp"`

	// SizeBytes is the payload size, when meaningful.
	SizeBytes int64 `json:"size_bytes,omitempty"`

	// DestBucket and DestKey describe the target of a relocation.
	DestBucket string `json:"dest_bucket,omitempty"`
	DestKey    string `json:"dest_key,omitempty"`

	// Metadata carries additional action-specific details.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Recorder writes and queries audit entries. Each entry is also mirrored to
// the structured logger so operators see audit activity in the log stream.
type Recorder struct {
	db     *sql.DB
	logger adapters.Logger
}

// NewRecorder creates a Recorder over an open metadata database.
func NewRecorder(db *sql.DB, logger adapters.Logger) *Recorder {
	if logger == nil {
		logger = adapters.NewDefaultLogger()
	}
	return &Recorder{db: db, logger: logger}
}

// Record inserts one audit entry. The caller treats failures as
// best-effort: an audit write error is logged and returned but must never
// abort the operation it describes.
func (r *Recorder) Record(ctx context.Context, entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var meta string
	if len(entry.Metadata) > 0 {
		raw, err := json.Marshal(entry.Metadata)
		if err == nil {
			meta = string(raw)
		}
	}

	r.logger.Info(ctx, "Audit: "+entry.OperationType,
		adapters.Field{Key: "bucket", Value: entry.Bucket},
		adapters.Field{Key: "key", Value: entry.ObjectKey},
		adapters.Field{Key: "actor", Value: entry.Actor},
		adapters.Field{Key: "status", Value: string(entry.Status)})

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log
		 (operation_type, bucket, object_key, actor, status, timestamp,
		  size_bytes, dest_bucket, dest_key, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.OperationType, entry.Bucket, entry.ObjectKey, entry.Actor,
		string(entry.Status), entry.Timestamp, entry.SizeBytes,
		entry.DestBucket, entry.DestKey, meta)
	if err != nil {
		r.logger.Warn(ctx, "Failed to write audit entry",
			adapters.Field{Key: "operation", Value: entry.OperationType},
			adapters.Field{Key: "error", Value: err.Error()})
		return err
	}

	entry.ID, _ = result.LastInsertId()
	return nil
}

// Success is a convenience wrapper recording a successful operation.
func (r *Recorder) Success(ctx context.Context, operation, bucket, key, actor string) {
	//nolint:errcheck // audit writes are best-effort
	r.Record(ctx, &Entry{
		OperationType: operation,
		Bucket:        bucket,
		ObjectKey:     key,
		Actor:         actor,
		Status:        ResultSuccess,
	})
}

// Failure is a convenience wrapper recording a failed operation.
func (r *Recorder) Failure(ctx context.Context, operation, bucket, key, actor string, opErr error) {
	entry := &Entry{
		OperationType: operation,
		Bucket:        bucket,
		ObjectKey:     key,
		Actor:         actor,
		Status:        ResultFailure,
	}
	if opErr != nil {
		entry.Metadata = map[string]any{"error": opErr.Error()}
	}
	//nolint:errcheck // audit writes are best-effort
	r.Record(ctx, entry)
}
