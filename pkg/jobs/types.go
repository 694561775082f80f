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

// Package jobs tracks long-running bulk operations as persistent job rows
// with an append-only event stream. Job history is never deleted.
package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OperationType categorizes a tracked operation.
type OperationType string

const (
	OpBulkUpload      OperationType = "bulk_upload"
	OpBulkDownload    OperationType = "bulk_download"
	OpBulkDelete      OperationType = "bulk_delete"
	OpBucketDelete    OperationType = "bucket_delete"
	OpBucketRename    OperationType = "bucket_rename"
	OpFileMove        OperationType = "file_move"
	OpFileCopy        OperationType = "file_copy"
	OpFolderMove      OperationType = "folder_move"
	OpFolderCopy      OperationType = "folder_copy"
	OpFolderDelete    OperationType = "folder_delete"
	OpBatchExport     OperationType = "batch_export"
	OpSearchIndexSync OperationType = "search_index_sync"
)

// Status is the lifecycle state of a job. Transitions only move forward
// along queued -> running -> {completed, failed, cancelled}; terminal
// states are final.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether s is a terminal status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// TransferJob represents one long-running bulk operation. Rows are created
// once, mutated only by the Tracker, and never deleted.
type TransferJob struct {
	// ID is globally unique, generated as <operationType>-<unix>-<random>.
	ID string `json:"job_id"`

	// Bucket is the bucket the operation targets; multi-bucket operations
	// join the bucket set with commas.
	Bucket string `json:"bucket"`

	OperationType OperationType `json:"operation_type"`
	Status        Status        `json:"status"`

	// TotalItems is nil until the first enumeration establishes it.
	TotalItems     *int64  `json:"total_items,omitempty"`
	ProcessedItems int64   `json:"processed_items"`
	ErrorCount     int64   `json:"error_count"`
	Percentage     float64 `json:"percentage"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Owner is the validated actor identity supplied by the caller.
	Owner string `json:"owner"`

	// ErrorMessage holds the failure reason for failed jobs.
	ErrorMessage string `json:"error_message,omitempty"`

	// Metadata is the typed per-operation payload; see metadata.go.
	Metadata Metadata `json:"metadata,omitempty"`
}

// EventType categorizes a job event.
type EventType string

const (
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventError     EventType = "error"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// JobEvent is one append-only record in a job's event stream.
type JobEvent struct {
	ID        int64     `json:"id"`
	JobID     string    `json:"job_id"`
	EventType EventType `json:"event_type"`
	Owner     string    `json:"owner,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// NewJobID generates a job identifier of the form
// <operationType>-<unix>-<random>.
func NewJobID(op OperationType) string {
	return fmt.Sprintf("%s-%d-%s", op, time.Now().Unix(), uuid.NewString()[:8])
}
