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

// Package miniodrv provides an object store backend using the native MinIO
// client SDK. Prefer this backend for self-hosted MinIO clusters; the s3
// backend covers AWS and Cloudflare R2.
package miniodrv

import (
	"context"
	"fmt"
	"io"

	"github.com/jeremyhahn/go-bucketadmin/pkg/common"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO is an object store backend over minio-go. It is safe for concurrent
// use by multiple goroutines.
type MinIO struct {
	core *miniogo.Core
}

// New creates a new, unconfigured MinIO backend.
func New() *MinIO {
	return &MinIO{}
}

// Configure sets up the backend.
// Required settings:
//   - endpoint: MinIO server endpoint (host:port, no scheme)
//   - accessKey: access key
//   - secretKey: secret key
//
// Optional settings:
//   - useSSL: "true" to connect over TLS
//   - region: region name
func (m *MinIO) Configure(settings map[string]string) error {
	endpoint := settings["endpoint"]
	accessKey := settings["accessKey"]
	secretKey := settings["secretKey"]
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return fmt.Errorf("%w: endpoint, accessKey and secretKey are required", common.ErrNotConfigured)
	}

	core, err := miniogo.NewCore(endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: settings["useSSL"] == "true",
		Region: settings["region"],
	})
	if err != nil {
		return fmt.Errorf("failed to create minio client: %w", err)
	}

	m.core = core
	return nil
}

func (m *MinIO) configured() error {
	if m.core == nil {
		return common.ErrNotConfigured
	}
	return nil
}

func isNoSuchKey(err error) bool {
	resp := miniogo.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}

func refFromInfo(key string, info miniogo.ObjectInfo) *common.ObjectRef {
	return &common.ObjectRef{
		Key:          key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
	}
}

// Put stores an object with the given content type.
func (m *MinIO) Put(ctx context.Context, bucket, key string, data io.Reader, contentType string) error {
	if err := m.configured(); err != nil {
		return err
	}
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	_, err := m.core.Client.PutObject(ctx, bucket, key, data, -1, miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get opens a streaming handle to the object. The caller must close it.
func (m *MinIO) Get(ctx context.Context, bucket, key string) (io.ReadCloser, *common.ObjectRef, error) {
	if err := m.configured(); err != nil {
		return nil, nil, err
	}

	obj, err := m.core.Client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, nil, err
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		if isNoSuchKey(err) {
			return nil, nil, fmt.Errorf("%w: %s/%s", common.ErrObjectNotFound, bucket, key)
		}
		return nil, nil, err
	}

	return obj, refFromInfo(key, stat), nil
}

// Head retrieves only the metadata for an object.
func (m *MinIO) Head(ctx context.Context, bucket, key string) (*common.ObjectRef, error) {
	if err := m.configured(); err != nil {
		return nil, err
	}

	stat, err := m.core.Client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s/%s", common.ErrObjectNotFound, bucket, key)
		}
		return nil, err
	}

	return refFromInfo(key, stat), nil
}

// Exists reports whether an object exists.
func (m *MinIO) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if err := m.configured(); err != nil {
		return false, err
	}

	_, err := m.core.Client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes an object. MinIO treats deleting a missing key as success.
func (m *MinIO) Delete(ctx context.Context, bucket, key string) error {
	if err := m.configured(); err != nil {
		return err
	}
	return m.core.Client.RemoveObject(ctx, bucket, key, miniogo.RemoveObjectOptions{})
}

// List returns one page of objects using the V2 continuation token as the
// opaque cursor.
func (m *MinIO) List(ctx context.Context, bucket string, opts *common.ListOptions) (*common.ListResult, error) {
	if err := m.configured(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &common.ListOptions{}
	}

	pageSize := opts.MaxResults
	if pageSize <= 0 {
		pageSize = 100
	}

	result, err := m.core.ListObjectsV2(bucket, opts.Prefix, "", opts.ContinueFrom, "", pageSize)
	if err != nil {
		return nil, err
	}

	listResult := &common.ListResult{
		Objects:   make([]*common.ObjectRef, 0, len(result.Contents)),
		NextToken: result.NextContinuationToken,
		Truncated: result.IsTruncated,
	}
	for _, obj := range result.Contents {
		listResult.Objects = append(listResult.Objects, refFromInfo(obj.Key, obj))
	}

	return listResult, nil
}

// CreateBucket creates a new bucket.
func (m *MinIO) CreateBucket(ctx context.Context, bucket string) error {
	if err := m.configured(); err != nil {
		return err
	}

	exists, err := m.core.Client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", common.ErrBucketExists, bucket)
	}

	return m.core.Client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{})
}

// DeleteBucket removes an empty bucket.
func (m *MinIO) DeleteBucket(ctx context.Context, bucket string) error {
	if err := m.configured(); err != nil {
		return err
	}

	err := m.core.Client.RemoveBucket(ctx, bucket)
	if err != nil && miniogo.ToErrorResponse(err).Code == "BucketNotEmpty" {
		return fmt.Errorf("%w: %s", common.ErrBucketNotEmpty, bucket)
	}
	return err
}

// ListBuckets returns all buckets visible to the configured credentials.
func (m *MinIO) ListBuckets(ctx context.Context) ([]common.BucketInfo, error) {
	if err := m.configured(); err != nil {
		return nil, err
	}

	raw, err := m.core.Client.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]common.BucketInfo, 0, len(raw))
	for _, b := range raw {
		infos = append(infos, common.BucketInfo{Name: b.Name, CreatedAt: b.CreationDate})
	}
	return infos, nil
}
