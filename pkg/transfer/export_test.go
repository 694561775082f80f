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
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
)

func readArchive(t *testing.T, buf *bytes.Buffer) map[string]string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("archive is not readable: %v", err)
	}
	entries := make(map[string]string, len(reader.File))
	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open archive entry %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read archive entry %s: %v", f.Name, err)
		}
		entries[f.Name] = string(data)
	}
	return entries
}

func TestExportSingleBucket(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "report.pdf", "notes/todo.txt")

	var buf bytes.Buffer
	result, err := h.coordinator.Export(ctx, []jobs.BucketKeys{
		{Bucket: "bkt", Keys: []string{"report.pdf", "notes/todo.txt"}},
	}, &buf, "admin")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	checkAccounting(t, result)
	if result.Succeeded != 2 {
		t.Errorf("expected 2 entries, got %d", result.Succeeded)
	}

	// Single-bucket selections keep bare key names.
	entries := readArchive(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 archive entries, got %v", entries)
	}
	if entries["report.pdf"] != "data" {
		t.Errorf("entry report.pdf = %q, want %q", entries["report.pdf"], "data")
	}
	if _, ok := entries["notes/todo.txt"]; !ok {
		t.Error("expected notes/todo.txt entry")
	}
}

func TestExportMultiBucketGroupsByBucket(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "alpha", "a.txt")
	h.seed(t, "beta", "b.txt")

	var buf bytes.Buffer
	result, err := h.coordinator.Export(ctx, []jobs.BucketKeys{
		{Bucket: "alpha", Keys: []string{"a.txt"}},
		{Bucket: "beta", Keys: []string{"b.txt"}},
	}, &buf, "admin")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if result.Succeeded != 2 {
		t.Errorf("expected 2 entries, got %d", result.Succeeded)
	}

	entries := readArchive(t, &buf)
	for _, name := range []string{"alpha/a.txt", "beta/b.txt"} {
		if _, ok := entries[name]; !ok {
			t.Errorf("expected entry %s, got %v", name, entries)
		}
	}
}

func TestExportSkipsMissingObjects(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "bkt", "present.txt")

	var buf bytes.Buffer
	result, err := h.coordinator.Export(ctx, []jobs.BucketKeys{
		{Bucket: "bkt", Keys: []string{"present.txt", "ghost.txt"}},
	}, &buf, "admin")
	if err != nil {
		t.Fatalf("Export should survive a missing object: %v", err)
	}
	checkAccounting(t, result)
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("expected 1 success and 1 failure, got %d/%d", result.Succeeded, result.Failed)
	}
	if !result.PartialSuccess {
		t.Error("expected partial success flag")
	}

	entries := readArchive(t, &buf)
	if len(entries) != 1 {
		t.Errorf("archive should hold only the present object, got %v", entries)
	}

	// The skip is visible in the job's event stream.
	events, err := h.tracker.Events(ctx, result.JobID)
	if err != nil {
		t.Fatalf("Events returned error: %v", err)
	}
	var sawError bool
	for _, ev := range events {
		if ev.EventType == jobs.EventError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected an error event for the skipped object")
	}
}

func TestExportJobRecordsSelection(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	h.seed(t, "alpha", "a.txt")
	h.seed(t, "beta", "b.txt")

	var buf bytes.Buffer
	result, err := h.coordinator.Export(ctx, []jobs.BucketKeys{
		{Bucket: "alpha", Keys: []string{"a.txt"}},
		{Bucket: "beta", Keys: []string{"b.txt"}},
	}, &buf, "admin")
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	job, err := h.tracker.Get(ctx, result.JobID)
	if err != nil {
		t.Fatalf("tracker.Get returned error: %v", err)
	}
	if job.Bucket != "alpha,beta" {
		t.Errorf("job bucket = %q, want %q", job.Bucket, "alpha,beta")
	}
	if job.TotalItems == nil || *job.TotalItems != 2 {
		t.Errorf("expected total items 2, got %v", job.TotalItems)
	}
}
