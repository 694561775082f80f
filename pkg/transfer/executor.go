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

// Package transfer synthesizes rename, move, copy, and bulk delete of
// buckets, folders, and files out of the object store's per-object
// primitives, with job tracking, audit records, and backpressure.
package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// Ref addresses one object in one bucket.
type Ref struct {
	Bucket string
	Key    string
}

func (r Ref) String() string {
	return r.Bucket + "/" + r.Key
}

// Result is the outcome of a single object transfer. Transfer never lets
// an error escape as a panic or unwind the caller; every outcome is a
// Result the caller tallies.
type Result struct {
	// OK is true when the destination object was written.
	OK bool

	// Err holds the failure when OK is false, wrapped in one of the
	// common sentinel errors.
	Err error

	// BytesCopied is the size of the copied object.
	BytesCopied int64

	// SourceRetained is true when the copy succeeded but the requested
	// source delete failed. The relocation degraded into a copy; the
	// caller is warned rather than failed.
	SourceRetained bool
}

// Executor performs single object relocations: fetch bytes plus content
// type from the source, write to the destination, optionally delete the
// source.
type Executor struct {
	store  common.ObjectStore
	logger adapters.Logger
}

// NewExecutor creates an Executor over the given store.
func NewExecutor(store common.ObjectStore, logger adapters.Logger) *Executor {
	if logger == nil {
		logger = adapters.NewDefaultLogger()
	}
	return &Executor{store: store, logger: logger}
}

// Transfer relocates one object. deleteSource=true gives move/rename
// semantics, false gives copy. The source's content type is preserved
// (defaulting to application/octet-stream); other metadata is not
// guaranteed to survive the relocation.
func (e *Executor) Transfer(ctx context.Context, src, dst Ref, deleteSource bool) Result {
	body, ref, err := e.store.Get(ctx, src.Bucket, src.Key)
	if err != nil {
		if errors.Is(err, common.ErrObjectNotFound) {
			return Result{Err: fmt.Errorf("%w: %s", common.ErrSourceNotFound, src)}
		}
		return Result{Err: fmt.Errorf("%w: %s: %v", common.ErrFetchFailed, src, err)}
	}
	defer body.Close()

	contentType := ref.ContentType
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	if err := e.store.Put(ctx, dst.Bucket, dst.Key, body, contentType); err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %v", common.ErrStoreFailed, dst, err)}
	}

	result := Result{OK: true, BytesCopied: ref.Size}

	if deleteSource {
		if err := e.store.Delete(ctx, src.Bucket, src.Key); err != nil {
			// The copy already succeeded; losing the delete degrades a
			// move into a copy but does not fail the transfer.
			e.logger.Warn(ctx, "Source delete failed after copy",
				adapters.Field{Key: "source", Value: src.String()},
				adapters.Field{Key: "destination", Value: dst.String()},
				adapters.Field{Key: "error", Value: err.Error()})
			result.SourceRetained = true
		}
	}

	return result
}
