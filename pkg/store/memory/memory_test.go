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

package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

func newTestStore(t *testing.T, bucket string) *Memory {
	t.Helper()
	store := New()
	if err := store.Configure(nil); err != nil {
		t.Fatalf("Configure() returned error: %v", err)
	}
	if err := store.CreateBucket(context.Background(), bucket); err != nil {
		t.Fatalf("CreateBucket() returned error: %v", err)
	}
	return store
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore(t, "test-bucket")
	ctx := context.Background()

	testData := []byte("hello world")
	err := store.Put(ctx, "test-bucket", "test-key", bytes.NewReader(testData), "text/plain")
	if err != nil {
		t.Fatalf("Put() returned error: %v", err)
	}

	reader, ref, err := store.Get(ctx, "test-bucket", "test-key")
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("io.ReadAll() returned error: %v", err)
	}
	if !bytes.Equal(data, testData) {
		t.Fatalf("Get() returned wrong data: got %q, want %q", data, testData)
	}
	if ref.ContentType != "text/plain" {
		t.Errorf("expected content type text/plain, got %q", ref.ContentType)
	}
	if ref.Size != int64(len(testData)) {
		t.Errorf("expected size %d, got %d", len(testData), ref.Size)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t, "test-bucket")

	_, _, err := store.Get(context.Background(), "test-bucket", "nope")
	if !errors.Is(err, common.ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestGetMissingBucket(t *testing.T) {
	store := New()

	_, _, err := store.Get(context.Background(), "absent", "key")
	if !errors.Is(err, common.ErrBucketNotFound) {
		t.Fatalf("expected ErrBucketNotFound, got %v", err)
	}
}

func TestDeleteMissingIsNoOp(t *testing.T) {
	store := newTestStore(t, "test-bucket")

	if err := store.Delete(context.Background(), "test-bucket", "never-existed"); err != nil {
		t.Fatalf("Delete() of missing key should succeed, got %v", err)
	}
}

func TestExists(t *testing.T) {
	store := newTestStore(t, "test-bucket")
	ctx := context.Background()

	ok, err := store.Exists(ctx, "test-bucket", "key")
	if err != nil || ok {
		t.Fatalf("Exists() before put: ok=%v err=%v", ok, err)
	}

	_ = store.Put(ctx, "test-bucket", "key", bytes.NewReader([]byte("x")), "")
	ok, err = store.Exists(ctx, "test-bucket", "key")
	if err != nil || !ok {
		t.Fatalf("Exists() after put: ok=%v err=%v", ok, err)
	}
}

func TestListPagination(t *testing.T) {
	store := newTestStore(t, "test-bucket")
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("data/obj-%02d", i)
		if err := store.Put(ctx, "test-bucket", key, bytes.NewReader([]byte("x")), ""); err != nil {
			t.Fatalf("Put(%s) returned error: %v", key, err)
		}
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		result, err := store.List(ctx, "test-bucket", &common.ListOptions{
			Prefix:       "data/",
			MaxResults:   10,
			ContinueFrom: cursor,
		})
		if err != nil {
			t.Fatalf("List() returned error: %v", err)
		}
		pages++
		for _, obj := range result.Objects {
			if seen[obj.Key] {
				t.Fatalf("duplicate key across pages: %s", obj.Key)
			}
			seen[obj.Key] = true
		}
		if !result.Truncated {
			break
		}
		cursor = result.NextToken
	}

	if len(seen) != 25 {
		t.Errorf("expected 25 objects across pages, got %d", len(seen))
	}
	if pages != 3 {
		t.Errorf("expected 3 pages, got %d", pages)
	}
}

func TestListPrefixFilter(t *testing.T) {
	store := newTestStore(t, "test-bucket")
	ctx := context.Background()

	_ = store.Put(ctx, "test-bucket", "logs/a.log", bytes.NewReader([]byte("x")), "")
	_ = store.Put(ctx, "test-bucket", "logs-archive/b.log", bytes.NewReader([]byte("x")), "")

	result, err := store.List(ctx, "test-bucket", &common.ListOptions{Prefix: "logs/"})
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}
	if len(result.Objects) != 1 || result.Objects[0].Key != "logs/a.log" {
		t.Fatalf("prefix filter leaked: %+v", result.Objects)
	}
}

func TestCreateBucketDuplicate(t *testing.T) {
	store := newTestStore(t, "test-bucket")

	err := store.CreateBucket(context.Background(), "test-bucket")
	if !errors.Is(err, common.ErrBucketExists) {
		t.Fatalf("expected ErrBucketExists, got %v", err)
	}
}

func TestDeleteBucketNotEmpty(t *testing.T) {
	store := newTestStore(t, "test-bucket")
	ctx := context.Background()

	_ = store.Put(ctx, "test-bucket", "key", bytes.NewReader([]byte("x")), "")

	err := store.DeleteBucket(ctx, "test-bucket")
	if !errors.Is(err, common.ErrBucketNotEmpty) {
		t.Fatalf("expected ErrBucketNotEmpty, got %v", err)
	}

	_ = store.Delete(ctx, "test-bucket", "key")
	if err := store.DeleteBucket(ctx, "test-bucket"); err != nil {
		t.Fatalf("DeleteBucket() of empty bucket returned error: %v", err)
	}
}

func TestListBuckets(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, name := range []string{"zebra", "alpha", "middle"} {
		if err := store.CreateBucket(ctx, name); err != nil {
			t.Fatalf("CreateBucket(%s) returned error: %v", name, err)
		}
	}

	buckets, err := store.ListBuckets(ctx)
	if err != nil {
		t.Fatalf("ListBuckets() returned error: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	for i, want := range []string{"alpha", "middle", "zebra"} {
		if buckets[i].Name != want {
			t.Errorf("bucket %d: expected %s, got %s", i, want, buckets[i].Name)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	store := newTestStore(t, "test-bucket")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := store.Put(ctx, "test-bucket", "key", bytes.NewReader([]byte("x")), ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := store.List(ctx, "test-bucket", nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
