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

package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/metadb"
)

// ProgressCadence is how many processed items pass between progress writes.
// Bounding the write volume keeps the tracker from dominating large jobs.
const ProgressCadence = 5

// ErrJobNotFound is returned when the requested job does not exist.
var ErrJobNotFound = errors.New("job not found")

// TotalUnknown marks a progress update whose total is not yet established.
const TotalUnknown int64 = -1

// Tracker persists TransferJob rows and their JobEvent streams. Tracking is
// best-effort observability: callers log Tracker errors and keep going --
// losing a tracking row never aborts the underlying transfer.
type Tracker struct {
	db     *sql.DB
	logger adapters.Logger
}

// NewTracker creates a Tracker over an open metadata database.
func NewTracker(db *sql.DB, logger adapters.Logger) *Tracker {
	if logger == nil {
		logger = adapters.NewDefaultLogger()
	}
	return &Tracker{db: db, logger: logger}
}

// Create inserts a queued job row and immediately emits a started event.
func (t *Tracker) Create(ctx context.Context, job *TransferJob) error {
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now().UTC()
	}
	job.Status = StatusQueued

	meta, err := MarshalMetadata(job.OperationType, job.Metadata)
	if err != nil {
		return err
	}

	var total any
	if job.TotalItems != nil {
		total = *job.TotalItems
	}

	_, err = t.db.ExecContext(ctx,
		`INSERT INTO transfer_jobs
		 (id, bucket, operation_type, status, total_items, processed_items,
		  error_count, percentage, started_at, owner, metadata)
		 VALUES (?, ?, ?, ?, ?, 0, 0, 0, ?, ?, ?)`,
		job.ID, job.Bucket, string(job.OperationType), string(job.Status),
		total, job.StartedAt, job.Owner, meta)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}

	t.appendEvent(ctx, job.ID, EventStarted, job.Owner, "")
	return nil
}

// Start moves a queued job to running.
func (t *Tracker) Start(ctx context.Context, jobID string) error {
	_, err := t.db.ExecContext(ctx,
		`UPDATE transfer_jobs SET status = ? WHERE id = ? AND status = ?`,
		string(StatusRunning), jobID, string(StatusQueued))
	if err != nil {
		return fmt.Errorf("failed to start job %s: %w", jobID, err)
	}
	return nil
}

// UpdateProgress records processed/error counters and recomputes the
// percentage. Pass TotalUnknown while the total is not yet established.
// The stored percentage is clamped to be monotonically non-decreasing.
func (t *Tracker) UpdateProgress(ctx context.Context, jobID string, processed, total, errorCount int64) error {
	percentage := 0.0
	var totalArg any
	if total >= 0 {
		totalArg = total
		if total > 0 {
			percentage = float64(processed) / float64(total) * 100
		}
	}

	_, err := t.db.ExecContext(ctx,
		`UPDATE transfer_jobs
		 SET processed_items = ?, error_count = ?,
		     total_items = COALESCE(?, total_items),
		     percentage = MAX(percentage, ?)
		 WHERE id = ? AND status IN (?, ?)`,
		processed, errorCount, totalArg, percentage,
		jobID, string(StatusQueued), string(StatusRunning))
	if err != nil {
		return fmt.Errorf("failed to update job %s: %w", jobID, err)
	}

	t.appendEvent(ctx, jobID, EventProgress, "",
		fmt.Sprintf(`{"processed":%d,"errors":%d}`, processed, errorCount))
	return nil
}

// RecordError appends an error event without touching counters.
func (t *Tracker) RecordError(ctx context.Context, jobID, detail string) {
	raw, _ := marshalDetail(map[string]string{"error": detail})
	t.appendEvent(ctx, jobID, EventError, "", raw)
}

// Complete writes a job's terminal state and a matching terminal event.
// Terminal states are final: a job already completed, failed, or cancelled
// is left untouched.
func (t *Tracker) Complete(ctx context.Context, jobID string, status Status, processed, errorCount int64, errMsg string) error {
	if !status.IsTerminal() {
		return fmt.Errorf("status %s is not terminal", status)
	}

	now := time.Now().UTC()
	_, err := t.db.ExecContext(ctx,
		`UPDATE transfer_jobs
		 SET status = ?, processed_items = ?, error_count = ?,
		     completed_at = ?, error_message = ?,
		     percentage = CASE WHEN ? = 'completed' AND total_items IS NOT NULL
		                       THEN 100 ELSE percentage END
		 WHERE id = ? AND status IN (?, ?)`,
		string(status), processed, errorCount, now, errMsg, string(status),
		jobID, string(StatusQueued), string(StatusRunning))
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}

	event := EventCompleted
	switch status {
	case StatusFailed:
		event = EventFailed
	case StatusCancelled:
		event = EventCancelled
	}

	detail := ""
	if errMsg != "" {
		detail, _ = marshalDetail(map[string]string{"error": errMsg})
	}
	t.appendEvent(ctx, jobID, event, "", detail)
	return nil
}

// Get returns a single job. Returns ErrJobNotFound if it does not exist; a
// missing table reads as not found.
func (t *Tracker) Get(ctx context.Context, jobID string) (*TransferJob, error) {
	row := t.db.QueryRowContext(ctx,
		`SELECT id, bucket, operation_type, status, total_items,
		        processed_items, error_count, percentage, started_at,
		        completed_at, owner, error_message, metadata
		 FROM transfer_jobs WHERE id = ?`, jobID)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || metadb.IsMissingTable(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ListFilter narrows a job listing. Zero values mean "any".
type ListFilter struct {
	OperationType OperationType
	Status        Status
	Bucket        string
	Owner         string
	Since         time.Time
	Until         time.Time
	Limit         int
	Offset        int
}

// List returns jobs matching the filter, newest first. A missing table
// reads as an empty history.
func (t *Tracker) List(ctx context.Context, filter ListFilter) ([]*TransferJob, error) {
	query := strings.Builder{}
	query.WriteString(
		`SELECT id, bucket, operation_type, status, total_items,
		        processed_items, error_count, percentage, started_at,
		        completed_at, owner, error_message, metadata
		 FROM transfer_jobs WHERE 1=1`)

	var args []any
	if filter.OperationType != "" {
		query.WriteString(" AND operation_type = ?")
		args = append(args, string(filter.OperationType))
	}
	if filter.Status != "" {
		query.WriteString(" AND status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Bucket != "" {
		query.WriteString(" AND bucket = ?")
		args = append(args, filter.Bucket)
	}
	if filter.Owner != "" {
		query.WriteString(" AND owner = ?")
		args = append(args, filter.Owner)
	}
	if !filter.Since.IsZero() {
		query.WriteString(" AND started_at >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query.WriteString(" AND started_at <= ?")
		args = append(args, filter.Until)
	}

	query.WriteString(" ORDER BY started_at DESC")

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query.WriteString(" LIMIT ? OFFSET ?")
	args = append(args, limit, filter.Offset)

	rows, err := t.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		if metadb.IsMissingTable(err) {
			return []*TransferJob{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*TransferJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Events returns a job's event stream in insertion order.
func (t *Tracker) Events(ctx context.Context, jobID string) ([]*JobEvent, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT id, job_id, event_type, owner, timestamp, details
		 FROM job_events WHERE job_id = ? ORDER BY id ASC`, jobID)
	if err != nil {
		if metadb.IsMissingTable(err) {
			return []*JobEvent{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	events := make([]*JobEvent, 0)
	for rows.Next() {
		event := &JobEvent{}
		var owner, details sql.NullString
		if err := rows.Scan(&event.ID, &event.JobID, &event.EventType,
			&owner, &event.Timestamp, &details); err != nil {
			return nil, err
		}
		event.Owner = owner.String
		event.Details = details.String
		events = append(events, event)
	}
	return events, rows.Err()
}

// MarkStale fails running jobs whose start time is older than the cutoff.
// A host timeout mid-operation leaves jobs running forever; this sweep is
// the cleanup path.
func (t *Tracker) MarkStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := t.db.ExecContext(ctx,
		`UPDATE transfer_jobs
		 SET status = ?, completed_at = ?, error_message = ?
		 WHERE status IN (?, ?) AND started_at < ?`,
		string(StatusFailed), time.Now().UTC(),
		"marked stale: no progress since start cutoff",
		string(StatusQueued), string(StatusRunning), cutoff)
	if err != nil {
		if metadb.IsMissingTable(err) {
			return 0, nil
		}
		return 0, err
	}
	return result.RowsAffected()
}

// appendEvent writes one event row. Event loss is tolerated: a failure is
// logged and swallowed so job bookkeeping never unwinds a transfer.
func (t *Tracker) appendEvent(ctx context.Context, jobID string, event EventType, owner, details string) {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO job_events (job_id, event_type, owner, timestamp, details)
		 VALUES (?, ?, ?, ?, ?)`,
		jobID, string(event), owner, time.Now().UTC(), details)
	if err != nil {
		t.logger.Warn(ctx, "Failed to append job event",
			adapters.Field{Key: "job_id", Value: jobID},
			adapters.Field{Key: "event", Value: string(event)},
			adapters.Field{Key: "error", Value: err.Error()})
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*TransferJob, error) {
	job := &TransferJob{}
	var (
		total       sql.NullInt64
		completedAt sql.NullTime
		errMsg      sql.NullString
		meta        sql.NullString
		op, status  string
	)

	err := row.Scan(&job.ID, &job.Bucket, &op, &status, &total,
		&job.ProcessedItems, &job.ErrorCount, &job.Percentage,
		&job.StartedAt, &completedAt, &job.Owner, &errMsg, &meta)
	if err != nil {
		return nil, err
	}

	job.OperationType = OperationType(op)
	job.Status = Status(status)
	if total.Valid {
		job.TotalItems = &total.Int64
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	job.ErrorMessage = errMsg.String

	if meta.Valid && meta.String != "" {
		decoded, err := UnmarshalMetadata(job.OperationType, meta.String)
		if err != nil {
			return nil, err
		}
		job.Metadata = decoded
	}

	return job, nil
}

func marshalDetail(detail map[string]string) (string, error) {
	raw, err := json.Marshal(detail)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
