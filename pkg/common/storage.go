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

package common

import (
	"context"
	"io"
)

// ObjectStore is the collaborator interface for a flat-namespace object
// store. The store offers only per-object primitives: it has no native
// rename, move, folder, or multi-object transaction. Everything above this
// interface is synthesized out of these calls.
type ObjectStore interface {
	// Configure sets up the backend with the necessary credentials and
	// settings.
	Configure(settings map[string]string) error

	// Put stores an object under bucket/key with the given content type.
	Put(ctx context.Context, bucket, key string, data io.Reader, contentType string) error

	// Get retrieves an object's bytes and descriptive metadata.
	// Returns ErrObjectNotFound if the object does not exist.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, *ObjectRef, error)

	// Head retrieves only the descriptive metadata for an object.
	// Returns ErrObjectNotFound if the object does not exist.
	Head(ctx context.Context, bucket, key string) (*ObjectRef, error)

	// Exists reports whether an object exists.
	Exists(ctx context.Context, bucket, key string) (bool, error)

	// Delete removes an object. Deleting a key that does not exist is a
	// no-op success.
	Delete(ctx context.Context, bucket, key string) error

	// List returns one page of objects filtered by opts.Prefix, carrying
	// the pagination cursor in opts.ContinueFrom.
	List(ctx context.Context, bucket string, opts *ListOptions) (*ListResult, error)

	// CreateBucket creates a new bucket. Returns ErrBucketExists if the
	// name is taken.
	CreateBucket(ctx context.Context, bucket string) error

	// DeleteBucket removes an empty bucket.
	DeleteBucket(ctx context.Context, bucket string) error

	// ListBuckets returns all buckets visible to the configured
	// credentials.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)
}
