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
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/audit"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
	"github.com/jeremyhahn/go-bucketadmin/pkg/metadb"
	"github.com/jeremyhahn/go-bucketadmin/pkg/store/memory"
)

type testHarness struct {
	store       *memory.Memory
	coordinator *Coordinator
	tracker     *jobs.Tracker
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	db, err := metadb.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open metadata db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := adapters.NewNoOpLogger()
	store := memory.New()
	tracker := jobs.NewTracker(db, logger)
	auditor := audit.NewRecorder(db, logger)

	coordinator := NewCoordinator(store, tracker, auditor, Config{
		PageSize: 10,
		Pacer:    NopPacer{},
		Logger:   logger,
	})

	return &testHarness{store: store, coordinator: coordinator, tracker: tracker}
}

func (h *testHarness) seed(t *testing.T, bucket string, keys ...string) {
	t.Helper()
	seedStore(t, h.store, bucket, keys...)
}

func seedStore(t *testing.T, store *memory.Memory, bucket string, keys ...string) {
	t.Helper()
	ctx := context.Background()
	if err := store.CreateBucket(ctx, bucket); err != nil {
		t.Fatalf("CreateBucket(%s) returned error: %v", bucket, err)
	}
	for _, key := range keys {
		if err := store.Put(ctx, bucket, key, bytes.NewReader([]byte("data")), "text/plain"); err != nil {
			t.Fatalf("Put(%s/%s) returned error: %v", bucket, key, err)
		}
	}
}

func (h *testHarness) keys(t *testing.T, bucket, prefix string) []string {
	t.Helper()
	result, err := h.store.List(context.Background(), bucket, &common.ListOptions{
		Prefix:     prefix,
		MaxResults: 1000,
	})
	if err != nil {
		t.Fatalf("List(%s) returned error: %v", bucket, err)
	}
	keys := make([]string, 0, len(result.Objects))
	for _, obj := range result.Objects {
		keys = append(keys, obj.Key)
	}
	return keys
}

func checkAccounting(t *testing.T, result *BulkResult) {
	t.Helper()
	if result.Attempted != result.Succeeded+result.Failed {
		t.Errorf("accounting broken: attempted=%d succeeded=%d failed=%d",
			result.Attempted, result.Succeeded, result.Failed)
	}
}

func TestForceDeleteBucket(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	keys := make([]string, 25)
	for i := range keys {
		keys[i] = fmt.Sprintf("file-%02d.txt", i)
	}
	h.seed(t, "doomed", keys...)

	result, err := h.coordinator.ForceDeleteBucket(ctx, "doomed", "admin")
	if err != nil {
		t.Fatalf("ForceDeleteBucket returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Status != jobs.StatusCompleted {
		t.Errorf("expected completed status, got %s", result.Status)
	}
	if result.Succeeded != 25 {
		t.Errorf("expected 25 deletions, got %d", result.Succeeded)
	}

	buckets, _ := h.store.ListBuckets(ctx)
	if len(buckets) != 0 {
		t.Errorf("bucket should be gone, got %d buckets", len(buckets))
	}

	// The job is queryable after the fact.
	job, err := h.tracker.Get(ctx, result.JobID)
	if err != nil {
		t.Fatalf("tracker.Get returned error: %v", err)
	}
	if job.Status != jobs.StatusCompleted {
		t.Errorf("persisted job status = %s, want completed", job.Status)
	}
	if job.ProcessedItems != 25 {
		t.Errorf("persisted processed = %d, want 25", job.ProcessedItems)
	}
}

func TestRenameBucket(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "old-name", "a.txt", "dir/b.txt", "dir/sub/c.txt")

	result, err := h.coordinator.RenameBucket(ctx, "old-name", "new-name", "admin")
	if err != nil {
		t.Fatalf("RenameBucket returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Succeeded != 3 {
		t.Errorf("expected 3 copies, got %d", result.Succeeded)
	}

	// Source bucket fully gone, destination has every key.
	buckets, _ := h.store.ListBuckets(ctx)
	if len(buckets) != 1 || buckets[0].Name != "new-name" {
		t.Fatalf("expected only new-name to remain, got %+v", buckets)
	}
	got := h.keys(t, "new-name", "")
	if len(got) != 3 {
		t.Errorf("expected 3 objects in destination, got %v", got)
	}
}

func TestRenameBucketSameName(t *testing.T) {
	h := newTestHarness(t)
	h.seed(t, "bucket")

	_, err := h.coordinator.RenameBucket(context.Background(), "bucket", "bucket", "admin")
	if !errors.Is(err, common.ErrSameSourceAndDest) {
		t.Fatalf("expected ErrSameSourceAndDest, got %v", err)
	}
}

func TestRenameBucketDestinationExists(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "src-bucket", "a.txt")
	h.seed(t, "dst-bucket", "existing.txt")

	result, err := h.coordinator.RenameBucket(ctx, "src-bucket", "dst-bucket", "admin")
	if err == nil {
		t.Fatal("expected failure when destination bucket exists")
	}
	if result.Status != jobs.StatusFailed {
		t.Errorf("expected failed status, got %s", result.Status)
	}

	// Nothing moved: the source keeps its object, the destination only
	// has what it started with.
	if got := h.keys(t, "src-bucket", ""); len(got) != 1 {
		t.Errorf("source should be untouched, got %v", got)
	}
	if got := h.keys(t, "dst-bucket", ""); len(got) != 1 {
		t.Errorf("destination should be untouched, got %v", got)
	}
}

func TestRelocateFolderMove(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "photos/a.jpg", "photos/nested/b.jpg", "photos-archive/c.jpg")

	result, err := h.coordinator.RelocateFolder(ctx, "bkt", "photos", "bkt", "images", true, "admin")
	if err != nil {
		t.Fatalf("RelocateFolder returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Succeeded != 2 {
		t.Errorf("expected 2 moves, got %d", result.Succeeded)
	}

	// Relative structure preserved, prefix boundary respected: the
	// photos-archive/ sibling is untouched.
	for _, key := range []string{"images/a.jpg", "images/nested/b.jpg", "photos-archive/c.jpg"} {
		if ok, _ := h.store.Exists(ctx, "bkt", key); !ok {
			t.Errorf("expected %s to exist", key)
		}
	}
	if got := h.keys(t, "bkt", "photos/"); len(got) != 0 {
		t.Errorf("source folder should be empty after move, got %v", got)
	}
}

func TestRelocateFolderCopyAcrossBuckets(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "src-bkt", "docs/a.pdf", "docs/b.pdf")
	h.seed(t, "dst-bkt")

	result, err := h.coordinator.RelocateFolder(ctx, "src-bkt", "docs", "dst-bkt", "backup/docs", false, "admin")
	if err != nil {
		t.Fatalf("RelocateFolder returned error: %v", err)
	}
	if result.Succeeded != 2 {
		t.Errorf("expected 2 copies, got %d", result.Succeeded)
	}

	// Copy leaves the source in place.
	if got := h.keys(t, "src-bkt", "docs/"); len(got) != 2 {
		t.Errorf("source should be intact after copy, got %v", got)
	}
	if ok, _ := h.store.Exists(ctx, "dst-bkt", "backup/docs/a.pdf"); !ok {
		t.Error("expected backup/docs/a.pdf in destination bucket")
	}
}

func TestRelocateFolderSamePrefix(t *testing.T) {
	h := newTestHarness(t)
	h.seed(t, "bkt", "docs/a.pdf")

	_, err := h.coordinator.RelocateFolder(context.Background(), "bkt", "docs", "bkt", "docs/", true, "admin")
	if !errors.Is(err, common.ErrSameSourceAndDest) {
		t.Fatalf("expected ErrSameSourceAndDest, got %v", err)
	}
}

func TestRelocateFolderIntoOwnSubtree(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "a/x.txt", "a/y/z.txt")

	// Moving a folder under itself would re-list the keys each pass just
	// wrote; the relocation must be refused before any store call.
	for _, move := range []bool{true, false} {
		_, err := h.coordinator.RelocateFolder(ctx, "bkt", "a", "bkt", "a/z", move, "admin")
		if !errors.Is(err, common.ErrDestinationInsideSource) {
			t.Fatalf("move=%v: expected ErrDestinationInsideSource, got %v", move, err)
		}
	}

	got := h.keys(t, "bkt", "a/")
	if len(got) != 2 {
		t.Errorf("folder should be untouched, got %v", got)
	}
	for _, key := range []string{"a/x.txt", "a/y/z.txt"} {
		if ok, _ := h.store.Exists(ctx, "bkt", key); !ok {
			t.Errorf("expected %s to survive", key)
		}
	}
}

func TestRelocateFolderNestedPrefixAcrossBuckets(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "src-bkt", "a/x.txt")
	h.seed(t, "dst-bkt")

	// The subtree guard only applies within a bucket; a destination that
	// happens to extend the source prefix is fine across buckets.
	result, err := h.coordinator.RelocateFolder(ctx, "src-bkt", "a", "dst-bkt", "a/z", true, "admin")
	if err != nil {
		t.Fatalf("RelocateFolder returned error: %v", err)
	}
	if result.Succeeded != 1 {
		t.Errorf("expected 1 move, got %d", result.Succeeded)
	}
	if ok, _ := h.store.Exists(ctx, "dst-bkt", "a/z/x.txt"); !ok {
		t.Error("expected a/z/x.txt in destination bucket")
	}
}

func TestCountAndDeleteFolder(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "tmp/a", "tmp/b", "tmp/c", "keep/d")

	count, err := h.coordinator.CountFolder(ctx, "bkt", "tmp")
	if err != nil {
		t.Fatalf("CountFolder returned error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 objects under tmp/, got %d", count)
	}

	result, err := h.coordinator.DeleteFolder(ctx, "bkt", "tmp", "admin")
	if err != nil {
		t.Fatalf("DeleteFolder returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Succeeded != 3 {
		t.Errorf("expected 3 deletions, got %d", result.Succeeded)
	}
	if ok, _ := h.store.Exists(ctx, "bkt", "keep/d"); !ok {
		t.Error("sibling folder should survive")
	}
}

func TestBulkDeleteObjects(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "a", "b", "c")

	// The missing key still succeeds: delete of an absent object is a
	// no-op at the store level.
	result, err := h.coordinator.BulkDeleteObjects(ctx, "bkt", []string{"a", "c", "ghost"}, "admin")
	if err != nil {
		t.Fatalf("BulkDeleteObjects returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Attempted != 3 {
		t.Errorf("expected 3 attempts, got %d", result.Attempted)
	}
	if ok, _ := h.store.Exists(ctx, "bkt", "b"); !ok {
		t.Error("unselected key should survive")
	}

	job, err := h.tracker.Get(ctx, result.JobID)
	if err != nil {
		t.Fatalf("tracker.Get returned error: %v", err)
	}
	if job.TotalItems == nil || *job.TotalItems != 3 {
		t.Errorf("expected total items 3, got %v", job.TotalItems)
	}
}

func TestRelocateObjectConflict(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "src.txt", "taken.txt")

	_, err := h.coordinator.RelocateObject(ctx,
		Ref{Bucket: "bkt", Key: "src.txt"},
		Ref{Bucket: "bkt", Key: "taken.txt"}, true, "admin")
	if !errors.Is(err, common.ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}

	// The refused move leaves the source alone.
	if ok, _ := h.store.Exists(ctx, "bkt", "src.txt"); !ok {
		t.Error("source should survive a refused relocation")
	}
}

func TestRelocateObjectSameKey(t *testing.T) {
	h := newTestHarness(t)
	h.seed(t, "bkt", "a.txt")

	_, err := h.coordinator.RelocateObject(context.Background(),
		Ref{Bucket: "bkt", Key: "a.txt"},
		Ref{Bucket: "bkt", Key: "a.txt"}, false, "admin")
	if !errors.Is(err, common.ErrSameSourceAndDest) {
		t.Fatalf("expected ErrSameSourceAndDest, got %v", err)
	}
}

func TestRelocateObjectMove(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "reports/q1.pdf")

	res, err := h.coordinator.RelocateObject(ctx,
		Ref{Bucket: "bkt", Key: "reports/q1.pdf"},
		Ref{Bucket: "bkt", Key: "archive/q1.pdf"}, true, "admin")
	if err != nil {
		t.Fatalf("RelocateObject returned error: %v", err)
	}
	if !res.OK {
		t.Fatal("expected success")
	}
	if ok, _ := h.store.Exists(ctx, "bkt", "reports/q1.pdf"); ok {
		t.Error("source should be gone after move")
	}
	if ok, _ := h.store.Exists(ctx, "bkt", "archive/q1.pdf"); !ok {
		t.Error("destination missing after move")
	}
}

func TestCreateFolder(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt")

	marker, err := h.coordinator.CreateFolder(ctx, "bkt", "uploads/incoming", "admin")
	if err != nil {
		t.Fatalf("CreateFolder returned error: %v", err)
	}
	if marker != "uploads/incoming/"+common.FolderMarkerSuffix {
		t.Errorf("unexpected marker key %q", marker)
	}
	if ok, _ := h.store.Exists(ctx, "bkt", marker); !ok {
		t.Error("marker object not written")
	}
}

// cancelAfterDelete cancels the run's context once the first delete has
// gone through, simulating a caller giving up mid-operation.
type cancelAfterDelete struct {
	*memory.Memory
	cancel  context.CancelFunc
	deletes int
}

func (s *cancelAfterDelete) Delete(ctx context.Context, bucket, key string) error {
	err := s.Memory.Delete(ctx, bucket, key)
	s.deletes++
	if s.deletes == 1 {
		s.cancel()
	}
	return err
}

func TestBulkDeleteCancelled(t *testing.T) {
	db, err := metadb.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open metadata db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := adapters.NewNoOpLogger()
	inner := memory.New()
	store := &cancelAfterDelete{Memory: inner, cancel: cancel}
	tracker := jobs.NewTracker(db, logger)
	coordinator := NewCoordinator(store, tracker, audit.NewRecorder(db, logger), Config{
		Pacer:  NopPacer{},
		Logger: logger,
	})

	if err := inner.CreateBucket(ctx, "bkt"); err != nil {
		t.Fatalf("CreateBucket returned error: %v", err)
	}
	for _, key := range []string{"a", "b", "c"} {
		if err := inner.Put(ctx, "bkt", key, bytes.NewReader([]byte("x")), ""); err != nil {
			t.Fatalf("Put returned error: %v", err)
		}
	}

	result, err := coordinator.BulkDeleteObjects(ctx, "bkt", []string{"a", "b", "c"}, "admin")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if result.Status != jobs.StatusCancelled {
		t.Errorf("expected cancelled status, got %s", result.Status)
	}
	checkAccounting(t, result)
	if result.Attempted != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", result.Attempted)
	}

	// The terminal row still lands even though the context is dead.
	job, err := tracker.Get(context.Background(), result.JobID)
	if err != nil {
		t.Fatalf("tracker.Get returned error: %v", err)
	}
	if job.Status != jobs.StatusCancelled {
		t.Errorf("persisted status = %s, want cancelled", job.Status)
	}
}

// failKeyStore wraps a store and refuses to delete the listed keys.
type failKeyStore struct {
	*memory.Memory
	failKeys map[string]bool
}

func (s *failKeyStore) Delete(ctx context.Context, bucket, key string) error {
	if s.failKeys[key] {
		return errors.New("delete denied")
	}
	return s.Memory.Delete(ctx, bucket, key)
}

// stuckHarness builds a coordinator over a failKeyStore with the given
// listing page size.
func stuckHarness(t *testing.T, pageSize int, failKeys ...string) (*failKeyStore, *Coordinator, *jobs.Tracker) {
	t.Helper()

	db, err := metadb.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open metadata db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	failing := make(map[string]bool, len(failKeys))
	for _, key := range failKeys {
		failing[key] = true
	}
	store := &failKeyStore{Memory: memory.New(), failKeys: failing}

	logger := adapters.NewNoOpLogger()
	tracker := jobs.NewTracker(db, logger)
	coordinator := NewCoordinator(store, tracker, audit.NewRecorder(db, logger), Config{
		PageSize: pageSize,
		Pacer:    NopPacer{},
		Logger:   logger,
	})
	return store, coordinator, tracker
}

func TestDeleteFolderStuckKey(t *testing.T) {
	store, coordinator, tracker := stuckHarness(t, 10, "tmp/stuck")
	ctx := context.Background()

	seedStore(t, store.Memory, "bkt", "tmp/a", "tmp/c", "tmp/stuck")

	result, err := coordinator.DeleteFolder(ctx, "bkt", "tmp", "admin")
	if err != nil {
		t.Fatalf("DeleteFolder returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Status != jobs.StatusCompleted || !result.PartialSuccess {
		t.Errorf("expected completed partial success, got status=%s partial=%v",
			result.Status, result.PartialSuccess)
	}

	// Each key is attempted exactly once: the stuck key is remembered and
	// skipped when the next pass re-lists it.
	if result.Attempted != 3 || result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("unexpected tally: attempted=%d succeeded=%d failed=%d",
			result.Attempted, result.Succeeded, result.Failed)
	}
	if ok, _ := store.Exists(ctx, "bkt", "tmp/stuck"); !ok {
		t.Error("stuck key should remain after the drain gives up")
	}

	events, err := tracker.Events(ctx, result.JobID)
	if err != nil {
		t.Fatalf("tracker.Events returned error: %v", err)
	}
	errEvents := 0
	for _, ev := range events {
		if ev.EventType == jobs.EventError {
			errEvents++
		}
	}
	if errEvents != 1 {
		t.Errorf("expected 1 error event for the stuck key, got %d", errEvents)
	}
}

func TestDeleteFolderStuckKeyDrainsLaterPages(t *testing.T) {
	store, coordinator, _ := stuckHarness(t, 2, "tmp/a-stuck")
	ctx := context.Background()

	// The stuck key sorts first, so it shares every re-listed page with a
	// fresh key; the drain must still reach the keys beyond page one.
	seedStore(t, store.Memory, "bkt", "tmp/a-stuck", "tmp/w", "tmp/x", "tmp/y", "tmp/z")

	result, err := coordinator.DeleteFolder(ctx, "bkt", "tmp", "admin")
	if err != nil {
		t.Fatalf("DeleteFolder returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Attempted != 5 || result.Succeeded != 4 || result.Failed != 1 {
		t.Errorf("unexpected tally: attempted=%d succeeded=%d failed=%d",
			result.Attempted, result.Succeeded, result.Failed)
	}
	for _, key := range []string{"tmp/w", "tmp/x", "tmp/y", "tmp/z"} {
		if ok, _ := store.Exists(ctx, "bkt", key); ok {
			t.Errorf("expected %s to be deleted", key)
		}
	}
	if ok, _ := store.Exists(ctx, "bkt", "tmp/a-stuck"); !ok {
		t.Error("stuck key should remain")
	}
}

func TestForceDeleteBucketObjectFailureFails(t *testing.T) {
	store, coordinator, tracker := stuckHarness(t, 10, "stuck.bin")
	ctx := context.Background()

	seedStore(t, store.Memory, "bkt", "a.txt", "stuck.bin")

	result, err := coordinator.ForceDeleteBucket(ctx, "bkt", "admin")
	if err == nil {
		t.Fatal("expected error when an object deletion fails")
	}
	checkAccounting(t, result)

	// A bucket with residue cannot be removed, so the run finalizes as
	// failed rather than completed with a partial count.
	if result.Status != jobs.StatusFailed {
		t.Errorf("expected failed status, got %s", result.Status)
	}
	if ok, _ := store.Exists(ctx, "bkt", "stuck.bin"); !ok {
		t.Error("stuck object should remain")
	}
	buckets, _ := store.ListBuckets(ctx)
	if len(buckets) != 1 {
		t.Errorf("bucket should survive, got %d buckets", len(buckets))
	}

	job, err := tracker.Get(ctx, result.JobID)
	if err != nil {
		t.Fatalf("tracker.Get returned error: %v", err)
	}
	if job.Status != jobs.StatusFailed {
		t.Errorf("persisted status = %s, want failed", job.Status)
	}
}

func TestForceDeleteBucketCancelled(t *testing.T) {
	h := newTestHarness(t)
	h.seed(t, "bkt", "a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := h.coordinator.ForceDeleteBucket(ctx, "bkt", "admin")
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if result.Status != jobs.StatusCancelled {
		t.Errorf("expected cancelled status, got %s", result.Status)
	}

	// Bucket must survive a cancelled drain.
	if _, err := h.store.ListBuckets(context.Background()); err != nil {
		t.Fatalf("ListBuckets returned error: %v", err)
	}
	if ok, _ := h.store.Exists(context.Background(), "bkt", "a"); !ok {
		t.Error("objects should survive a cancelled force delete")
	}
}
