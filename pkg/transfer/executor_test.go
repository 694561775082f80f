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
	"io"
	"testing"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/store/memory"
)

func newStoreWithBuckets(t *testing.T, buckets ...string) *memory.Memory {
	t.Helper()
	store := memory.New()
	for _, b := range buckets {
		if err := store.CreateBucket(context.Background(), b); err != nil {
			t.Fatalf("CreateBucket(%s) returned error: %v", b, err)
		}
	}
	return store
}

func TestTransferCopy(t *testing.T) {
	store := newStoreWithBuckets(t, "src", "dst")
	ctx := context.Background()

	_ = store.Put(ctx, "src", "doc.pdf", bytes.NewReader([]byte("payload")), "application/pdf")

	exec := NewExecutor(store, adapters.NewNoOpLogger())
	res := exec.Transfer(ctx, Ref{Bucket: "src", Key: "doc.pdf"}, Ref{Bucket: "dst", Key: "doc.pdf"}, false)

	if !res.OK {
		t.Fatalf("Transfer failed: %v", res.Err)
	}
	if res.BytesCopied != 7 {
		t.Errorf("expected 7 bytes copied, got %d", res.BytesCopied)
	}

	// Source intact, destination has the same bytes and content type.
	if ok, _ := store.Exists(ctx, "src", "doc.pdf"); !ok {
		t.Error("copy should leave the source in place")
	}
	body, ref, err := store.Get(ctx, "dst", "doc.pdf")
	if err != nil {
		t.Fatalf("Get(dst) returned error: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "payload" {
		t.Errorf("destination bytes = %q, want %q", data, "payload")
	}
	if ref.ContentType != "application/pdf" {
		t.Errorf("content type not preserved: got %q", ref.ContentType)
	}
}

func TestTransferMoveDeletesSource(t *testing.T) {
	store := newStoreWithBuckets(t, "src", "dst")
	ctx := context.Background()

	_ = store.Put(ctx, "src", "key", bytes.NewReader([]byte("x")), "")

	exec := NewExecutor(store, adapters.NewNoOpLogger())
	res := exec.Transfer(ctx, Ref{Bucket: "src", Key: "key"}, Ref{Bucket: "dst", Key: "key"}, true)

	if !res.OK {
		t.Fatalf("Transfer failed: %v", res.Err)
	}
	if res.SourceRetained {
		t.Error("source delete succeeded, SourceRetained should be false")
	}
	if ok, _ := store.Exists(ctx, "src", "key"); ok {
		t.Error("move should delete the source")
	}
	if ok, _ := store.Exists(ctx, "dst", "key"); !ok {
		t.Error("destination missing after move")
	}
}

func TestTransferDefaultsContentType(t *testing.T) {
	store := newStoreWithBuckets(t, "src", "dst")
	ctx := context.Background()

	_ = store.Put(ctx, "src", "blob", bytes.NewReader([]byte("x")), "")

	exec := NewExecutor(store, adapters.NewNoOpLogger())
	res := exec.Transfer(ctx, Ref{Bucket: "src", Key: "blob"}, Ref{Bucket: "dst", Key: "blob"}, false)
	if !res.OK {
		t.Fatalf("Transfer failed: %v", res.Err)
	}

	_, ref, err := store.Get(ctx, "dst", "blob")
	if err != nil {
		t.Fatalf("Get(dst) returned error: %v", err)
	}
	if ref.ContentType != common.DefaultContentType {
		t.Errorf("expected default content type, got %q", ref.ContentType)
	}
}

func TestTransferMissingSource(t *testing.T) {
	store := newStoreWithBuckets(t, "src", "dst")

	exec := NewExecutor(store, adapters.NewNoOpLogger())
	res := exec.Transfer(context.Background(), Ref{Bucket: "src", Key: "ghost"}, Ref{Bucket: "dst", Key: "ghost"}, false)

	if res.OK {
		t.Fatal("expected failure for missing source")
	}
	if !errors.Is(res.Err, common.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", res.Err)
	}
}

// deleteFailStore wraps a store and fails every Delete.
type deleteFailStore struct {
	*memory.Memory
}

func (s *deleteFailStore) Delete(ctx context.Context, bucket, key string) error {
	return errors.New("delete denied")
}

func TestTransferDeleteFailureDegradesToCopy(t *testing.T) {
	inner := newStoreWithBuckets(t, "src", "dst")
	ctx := context.Background()
	_ = inner.Put(ctx, "src", "key", bytes.NewReader([]byte("x")), "")

	exec := NewExecutor(&deleteFailStore{inner}, adapters.NewNoOpLogger())
	res := exec.Transfer(ctx, Ref{Bucket: "src", Key: "key"}, Ref{Bucket: "dst", Key: "key"}, true)

	if !res.OK {
		t.Fatalf("copy succeeded, transfer must not fail: %v", res.Err)
	}
	if !res.SourceRetained {
		t.Error("expected SourceRetained after delete failure")
	}
	if ok, _ := inner.Exists(ctx, "dst", "key"); !ok {
		t.Error("destination missing")
	}
	if ok, _ := inner.Exists(ctx, "src", "key"); !ok {
		t.Error("source should remain after failed delete")
	}
}
