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

package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/audit"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
	"github.com/jeremyhahn/go-bucketadmin/pkg/lister"
)

// BulkResult summarizes a finished bulk operation. Accounting identity:
// Attempted == Succeeded + Failed for every run, including cancelled and
// failed ones.
type BulkResult struct {
	JobID     string        `json:"job_id"`
	Status    jobs.Status   `json:"status"`
	Attempted int64         `json:"attempted"`
	Succeeded int64         `json:"succeeded"`
	Failed    int64         `json:"failed"`
	Duration  time.Duration `json:"-"`

	// PartialSuccess is true when the operation completed with a non-zero
	// failure count. Per-item failures never abort a bulk pass.
	PartialSuccess bool `json:"partial_success,omitempty"`
}

// Config tunes a Coordinator.
type Config struct {
	// PageSize is the listing page size; <= 0 selects the lister default.
	PageSize int

	// Pacer applies backpressure between listing pages. Nil selects a
	// FixedPacer with the default delay.
	Pacer Pacer

	Logger adapters.Logger
}

// Coordinator composes the lister, executor, job tracker, and audit
// recorder into bulk operations the object store has no primitive for:
// force bucket delete, bucket rename, folder move/copy/delete, and batch
// export. All operations run synchronously on the caller's goroutine;
// cancellation is cooperative via the context, checked between pages.
type Coordinator struct {
	store    common.ObjectStore
	lister   *lister.Lister
	executor *Executor
	tracker  *jobs.Tracker
	auditor  *audit.Recorder
	pacer    Pacer
	logger   adapters.Logger
}

// NewCoordinator creates a Coordinator over the given store and trackers.
func NewCoordinator(store common.ObjectStore, tracker *jobs.Tracker, auditor *audit.Recorder, cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = adapters.NewDefaultLogger()
	}
	pacer := cfg.Pacer
	if pacer == nil {
		pacer = NewFixedPacer(DefaultPageDelay)
	}
	return &Coordinator{
		store:    store,
		lister:   lister.New(store, cfg.PageSize),
		executor: NewExecutor(store, logger),
		tracker:  tracker,
		auditor:  auditor,
		pacer:    pacer,
		logger:   logger,
	}
}

// tally accumulates per-item outcomes during a bulk pass.
type tally struct {
	attempted int64
	succeeded int64
	failed    int64
}

// record notes one item outcome and, on failure, appends a job error event.
func (c *Coordinator) record(ctx context.Context, jobID string, t *tally, itemErr error) {
	t.attempted++
	if itemErr == nil {
		t.succeeded++
		return
	}
	t.failed++
	c.tracker.RecordError(ctx, jobID, itemErr.Error())
}

// maybeProgress writes a progress row at the cadence boundary.
func (c *Coordinator) maybeProgress(ctx context.Context, jobID string, t *tally, total int64) {
	if t.attempted%jobs.ProgressCadence != 0 {
		return
	}
	if err := c.tracker.UpdateProgress(ctx, jobID, t.attempted, total, t.failed); err != nil {
		c.logger.Warn(ctx, "Failed to update job progress",
			adapters.Field{Key: "job_id", Value: jobID},
			adapters.Field{Key: "error", Value: err.Error()})
	}
}

// beginJob creates and starts a job row. Tracking is best-effort: a
// tracker failure is logged and the operation proceeds untracked.
func (c *Coordinator) beginJob(ctx context.Context, job *jobs.TransferJob) {
	if err := c.tracker.Create(ctx, job); err != nil {
		c.logger.Warn(ctx, "Failed to create job record",
			adapters.Field{Key: "job_id", Value: job.ID},
			adapters.Field{Key: "error", Value: err.Error()})
		return
	}
	if err := c.tracker.Start(ctx, job.ID); err != nil {
		c.logger.Warn(ctx, "Failed to start job record",
			adapters.Field{Key: "job_id", Value: job.ID},
			adapters.Field{Key: "error", Value: err.Error()})
	}
}

// finishJob resolves the terminal status from the run error and final
// tally, writes it, and returns the BulkResult. A context cancellation
// terminates the job as cancelled, an enumeration or setup failure as
// failed, anything else as completed (partial success when failures were
// tallied along the way).
func (c *Coordinator) finishJob(ctx context.Context, jobID string, t *tally, started time.Time, runErr error) (*BulkResult, error) {
	status := jobs.StatusCompleted
	errMsg := ""
	switch {
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		status = jobs.StatusCancelled
		errMsg = "operation cancelled"
	case runErr != nil:
		status = jobs.StatusFailed
		errMsg = runErr.Error()
	}

	// Terminal writes use a background context so a cancelled operation
	// still lands its terminal row.
	finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.tracker.Complete(finCtx, jobID, status, t.attempted, t.failed, errMsg); err != nil {
		c.logger.Warn(ctx, "Failed to finalize job record",
			adapters.Field{Key: "job_id", Value: jobID},
			adapters.Field{Key: "error", Value: err.Error()})
	}

	result := &BulkResult{
		JobID:          jobID,
		Status:         status,
		Attempted:      t.attempted,
		Succeeded:      t.succeeded,
		Failed:         t.failed,
		Duration:       time.Since(started),
		PartialSuccess: status == jobs.StatusCompleted && t.failed > 0,
	}
	if status == jobs.StatusCompleted {
		return result, nil
	}
	return result, runErr
}

// ForceDeleteBucket deletes every object in bucket page by page, then
// deletes the bucket itself. Per-object delete failures are tallied and
// never abort the pass, but any failure leaves the bucket in place.
func (c *Coordinator) ForceDeleteBucket(ctx context.Context, bucket, actor string) (*BulkResult, error) {
	started := time.Now()
	job := &jobs.TransferJob{
		ID:            jobs.NewJobID(jobs.OpBucketDelete),
		Bucket:        bucket,
		OperationType: jobs.OpBucketDelete,
		Owner:         actor,
	}
	c.beginJob(ctx, job)

	t := &tally{}
	runErr := c.drainPrefix(ctx, job.ID, bucket, "", t)

	if runErr == nil && t.failed == 0 {
		if err := c.store.DeleteBucket(ctx, bucket); err != nil {
			runErr = fmt.Errorf("failed to delete emptied bucket %s: %w", bucket, err)
		}
	} else if runErr == nil {
		runErr = fmt.Errorf("bucket %s not deleted: %d object deletions failed", bucket, t.failed)
	}

	c.auditBulk(ctx, "bucket_delete", bucket, "", actor, t, runErr)
	return c.finishJob(ctx, job.ID, t, started, runErr)
}

// RenameBucket synthesizes a bucket rename in four phases: create the
// destination bucket, copy every object across, delete every source
// object, delete the source bucket. A destination create failure aborts
// before any data moves. Copy failures are tallied; the teardown phases
// only run on a clean copy pass so a partial rename never destroys the
// source.
func (c *Coordinator) RenameBucket(ctx context.Context, src, dst, actor string) (*BulkResult, error) {
	started := time.Now()

	if src == dst {
		return nil, common.ErrSameSourceAndDest
	}
	if err := common.ValidateBucketName(dst); err != nil {
		return nil, err
	}

	job := &jobs.TransferJob{
		ID:            jobs.NewJobID(jobs.OpBucketRename),
		Bucket:        src,
		OperationType: jobs.OpBucketRename,
		Owner:         actor,
		Metadata:      &jobs.BucketRename{NewName: dst},
	}
	c.beginJob(ctx, job)

	t := &tally{}
	runErr := c.store.CreateBucket(ctx, dst)
	if runErr != nil {
		runErr = fmt.Errorf("failed to create destination bucket %s: %w", dst, runErr)
	}

	if runErr == nil {
		runErr = c.lister.Pages(ctx, src, "", func(page []*common.ObjectRef) error {
			for _, obj := range page {
				res := c.executor.Transfer(ctx,
					Ref{Bucket: src, Key: obj.Key},
					Ref{Bucket: dst, Key: obj.Key}, false)
				c.record(ctx, job.ID, t, res.Err)
			}
			c.maybeProgress(ctx, job.ID, t, jobs.TotalUnknown)
			return c.pacer.Wait(ctx)
		})
	}

	if runErr == nil && t.failed > 0 {
		runErr = fmt.Errorf("rename aborted before teardown: %d of %d copies failed", t.failed, t.attempted)
	}

	if runErr == nil {
		teardown := &tally{}
		runErr = c.drainPrefix(ctx, job.ID, src, "", teardown)
		if runErr == nil && teardown.failed > 0 {
			runErr = fmt.Errorf("source bucket %s not deleted: %d object deletions failed", src, teardown.failed)
		}
		if runErr == nil {
			if err := c.store.DeleteBucket(ctx, src); err != nil {
				runErr = fmt.Errorf("failed to delete source bucket %s: %w", src, err)
			}
		}
	}

	entry := &audit.Entry{
		OperationType: "bucket_rename",
		Bucket:        src,
		DestBucket:    dst,
		Actor:         actor,
		Status:        audit.ResultSuccess,
		Metadata:      map[string]any{"objects": t.attempted},
	}
	if runErr != nil {
		entry.Status = audit.ResultFailure
		entry.Metadata["error"] = runErr.Error()
	}
	//nolint:errcheck // audit writes are best-effort
	c.auditor.Record(ctx, entry)

	return c.finishJob(ctx, job.ID, t, started, runErr)
}

// RelocateFolder copies (move=false) or moves (move=true) every object
// under srcPrefix into dstPrefix, preserving the relative key structure:
// dstKey = dstPrefix + (srcKey - srcPrefix). Per-item failures are
// tallied; a move leaves failed sources in place.
func (c *Coordinator) RelocateFolder(ctx context.Context, srcBucket, srcPrefix, dstBucket, dstPrefix string, move bool, actor string) (*BulkResult, error) {
	started := time.Now()

	srcPrefix = normalizePrefix(srcPrefix)
	dstPrefix = normalizePrefix(dstPrefix)
	if srcBucket == dstBucket {
		if srcPrefix == dstPrefix {
			return nil, common.ErrSameSourceAndDest
		}
		// A destination nested under the source would re-enumerate the
		// keys each pass just wrote and relocate them again without end.
		if strings.HasPrefix(dstPrefix, srcPrefix) {
			return nil, common.ErrDestinationInsideSource
		}
	}

	op := jobs.OpFolderCopy
	auditOp := "folder_copy"
	if move {
		op = jobs.OpFolderMove
		auditOp = "folder_move"
	}

	job := &jobs.TransferJob{
		ID:            jobs.NewJobID(op),
		Bucket:        srcBucket,
		OperationType: op,
		Owner:         actor,
		Metadata: &jobs.FolderRelocation{
			SourcePrefix: srcPrefix,
			DestBucket:   dstBucket,
			DestPrefix:   dstPrefix,
		},
	}
	c.beginJob(ctx, job)

	t := &tally{}
	runErr := c.lister.Pages(ctx, srcBucket, srcPrefix, func(page []*common.ObjectRef) error {
		for _, obj := range page {
			dstKey := dstPrefix + strings.TrimPrefix(obj.Key, srcPrefix)
			res := c.executor.Transfer(ctx,
				Ref{Bucket: srcBucket, Key: obj.Key},
				Ref{Bucket: dstBucket, Key: dstKey}, move)
			c.record(ctx, job.ID, t, res.Err)
		}
		c.maybeProgress(ctx, job.ID, t, jobs.TotalUnknown)
		return c.pacer.Wait(ctx)
	})

	entry := &audit.Entry{
		OperationType: auditOp,
		Bucket:        srcBucket,
		ObjectKey:     srcPrefix,
		DestBucket:    dstBucket,
		DestKey:       dstPrefix,
		Actor:         actor,
		Status:        audit.ResultSuccess,
		Metadata:      map[string]any{"objects": t.attempted, "failed": t.failed},
	}
	if runErr != nil {
		entry.Status = audit.ResultFailure
		entry.Metadata["error"] = runErr.Error()
	}
	//nolint:errcheck // audit writes are best-effort
	c.auditor.Record(ctx, entry)

	return c.finishJob(ctx, job.ID, t, started, runErr)
}

// CountFolder returns how many objects live under prefix without deleting
// anything. This is the confirmation step of the folder delete flow.
func (c *Coordinator) CountFolder(ctx context.Context, bucket, prefix string) (int, error) {
	return c.lister.Count(ctx, bucket, normalizePrefix(prefix))
}

// DeleteFolder deletes every object under prefix. Callers are expected to
// confirm via CountFolder first; this method does not second-guess them.
func (c *Coordinator) DeleteFolder(ctx context.Context, bucket, prefix, actor string) (*BulkResult, error) {
	started := time.Now()
	prefix = normalizePrefix(prefix)

	job := &jobs.TransferJob{
		ID:            jobs.NewJobID(jobs.OpFolderDelete),
		Bucket:        bucket,
		OperationType: jobs.OpFolderDelete,
		Owner:         actor,
		Metadata:      &jobs.FolderRelocation{SourcePrefix: prefix},
	}
	c.beginJob(ctx, job)

	t := &tally{}
	runErr := c.drainPrefix(ctx, job.ID, bucket, prefix, t)

	c.auditBulk(ctx, "folder_delete", bucket, prefix, actor, t, runErr)
	return c.finishJob(ctx, job.ID, t, started, runErr)
}

// BulkDeleteObjects deletes an explicit key selection from bucket.
func (c *Coordinator) BulkDeleteObjects(ctx context.Context, bucket string, keys []string, actor string) (*BulkResult, error) {
	started := time.Now()

	job := &jobs.TransferJob{
		ID:            jobs.NewJobID(jobs.OpBulkDelete),
		Bucket:        bucket,
		OperationType: jobs.OpBulkDelete,
		Owner:         actor,
		Metadata:      &jobs.FileSelection{Keys: keys},
	}
	total := int64(len(keys))
	job.TotalItems = &total
	c.beginJob(ctx, job)

	t := &tally{}
	var runErr error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		c.record(ctx, job.ID, t, c.store.Delete(ctx, bucket, key))
		c.maybeProgress(ctx, job.ID, t, total)
	}

	c.auditBulk(ctx, "bulk_delete", bucket, "", actor, t, runErr)
	return c.finishJob(ctx, job.ID, t, started, runErr)
}

// drainPrefix deletes every object under prefix page by page, tallying
// per-item outcomes. Pages are re-listed from the start of the prefix
// because each pass removes the keys it saw. Keys that already failed are
// carried across passes and skipped rather than re-attempted, so a stuck
// key records exactly one error event; a pass with no successful delete
// stops the drain and leaves the tally to tell the story.
func (c *Coordinator) drainPrefix(ctx context.Context, jobID, bucket, prefix string, t *tally) error {
	var stuck map[string]bool
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		refs, err := c.listOnePage(ctx, bucket, prefix)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return nil
		}

		progressed := false
		failed := make(map[string]bool)
		for _, obj := range refs {
			if stuck[obj.Key] {
				failed[obj.Key] = true
				continue
			}
			delErr := c.store.Delete(ctx, bucket, obj.Key)
			c.record(ctx, jobID, t, delErr)
			if delErr != nil {
				failed[obj.Key] = true
			} else {
				progressed = true
			}
		}
		stuck = failed
		c.maybeProgress(ctx, jobID, t, jobs.TotalUnknown)

		if err := c.pacer.Wait(ctx); err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

// listOnePage fetches the first page under prefix without a cursor.
func (c *Coordinator) listOnePage(ctx context.Context, bucket, prefix string) ([]*common.ObjectRef, error) {
	result, err := c.store.List(ctx, bucket, &common.ListOptions{
		Prefix:     prefix,
		MaxResults: c.lister.PageSize(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEnumerationFailed, err)
	}
	return result.Objects, nil
}

// auditBulk records one audit entry summarizing a bulk pass.
func (c *Coordinator) auditBulk(ctx context.Context, operation, bucket, key, actor string, t *tally, runErr error) {
	entry := &audit.Entry{
		OperationType: operation,
		Bucket:        bucket,
		ObjectKey:     key,
		Actor:         actor,
		Status:        audit.ResultSuccess,
		Metadata: map[string]any{
			"attempted": t.attempted,
			"succeeded": t.succeeded,
			"failed":    t.failed,
		},
	}
	if runErr != nil {
		entry.Status = audit.ResultFailure
		entry.Metadata["error"] = runErr.Error()
	}
	//nolint:errcheck // audit writes are best-effort
	c.auditor.Record(ctx, entry)
}

// normalizePrefix ensures a non-empty folder prefix ends with a slash so
// "logs" cannot match "logs-archive/".
func normalizePrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}
