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

// Package s3 provides an object store backend for S3-compatible services
// (AWS S3, Cloudflare R2, MinIO) using the AWS SDK.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-bucketadmin/pkg/common"

	"github.com/aws/aws-sdk-go/aws"             //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/aws/awserr"      //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/aws/credentials" //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	"github.com/aws/aws-sdk-go/aws/session"     //nolint:staticcheck // Using v1 SDK, migration to v2 planned
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3 is an object store backend speaking the S3 wire protocol. Cloudflare
// R2 and MinIO deployments are addressed through the endpoint setting.
type S3 struct {
	svc s3iface.S3API
}

// New creates a new, unconfigured S3 backend.
func New() *S3 {
	return &S3{}
}

// NewWithClient creates a backend over an existing S3 API client. Used by
// tests to inject a mock.
func NewWithClient(svc s3iface.S3API) *S3 {
	return &S3{svc: svc}
}

// Configure sets up the backend.
// Required settings:
//   - accessKey: access key ID
//   - secretKey: secret access key
//
// Optional settings:
//   - endpoint: custom endpoint (e.g. "https://<account>.r2.cloudflarestorage.com")
//   - region: region name (default "auto" when endpoint is set, else "us-east-1")
//   - forcePathStyle: "true" to use path-style addressing (MinIO)
func (s *S3) Configure(settings map[string]string) error {
	accessKey := settings["accessKey"]
	secretKey := settings["secretKey"]
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("%w: accessKey and secretKey are required", common.ErrNotConfigured)
	}

	endpoint := settings["endpoint"]
	region := settings["region"]
	if region == "" {
		if endpoint != "" {
			region = "auto"
		} else {
			region = "us-east-1"
		}
	}

	cfg := aws.NewConfig().
		WithRegion(region).
		WithCredentials(credentials.NewStaticCredentials(accessKey, secretKey, ""))
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint)
	}
	if settings["forcePathStyle"] == "true" {
		cfg = cfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	s.svc = awss3.New(sess)
	return nil
}

func (s *S3) configured() error {
	if s.svc == nil {
		return common.ErrNotConfigured
	}
	return nil
}

// isNotFound reports whether an SDK error means the object does not exist.
func isNotFound(err error) bool {
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case awss3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return strings.Contains(err.Error(), "status code: 404")
}

// Put stores an object with the given content type.
func (s *S3) Put(ctx context.Context, bucket, key string, data io.Reader, contentType string) error {
	if err := s.configured(); err != nil {
		return err
	}
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	_, err := s.svc.PutObjectWithContext(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(data),
		ContentType: aws.String(contentType),
	})
	return err
}

// Get retrieves an object's bytes and metadata.
func (s *S3) Get(ctx context.Context, bucket, key string) (io.ReadCloser, *common.ObjectRef, error) {
	if err := s.configured(); err != nil {
		return nil, nil, err
	}

	result, err := s.svc.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, fmt.Errorf("%w: %s/%s", common.ErrObjectNotFound, bucket, key)
		}
		return nil, nil, err
	}

	ref := &common.ObjectRef{
		Key:          key,
		Size:         aws.Int64Value(result.ContentLength),
		LastModified: aws.TimeValue(result.LastModified),
		ContentType:  aws.StringValue(result.ContentType),
		ETag:         aws.StringValue(result.ETag),
	}
	return result.Body, ref, nil
}

// Head retrieves only the metadata for an object.
func (s *S3) Head(ctx context.Context, bucket, key string) (*common.ObjectRef, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}

	result, err := s.svc.HeadObjectWithContext(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s/%s", common.ErrObjectNotFound, bucket, key)
		}
		return nil, err
	}

	return &common.ObjectRef{
		Key:          key,
		Size:         aws.Int64Value(result.ContentLength),
		LastModified: aws.TimeValue(result.LastModified),
		ContentType:  aws.StringValue(result.ContentType),
		ETag:         aws.StringValue(result.ETag),
	}, nil
}

// Exists reports whether an object exists.
func (s *S3) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.Head(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, common.ErrObjectNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes an object. S3 treats deleting a missing key as success.
func (s *S3) Delete(ctx context.Context, bucket, key string) error {
	if err := s.configured(); err != nil {
		return err
	}

	_, err := s.svc.DeleteObjectWithContext(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// List returns one page of objects using ListObjectsV2 continuation tokens
// as the opaque cursor.
func (s *S3) List(ctx context.Context, bucket string, opts *common.ListOptions) (*common.ListResult, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &common.ListOptions{}
	}

	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.MaxResults > 0 {
		input.MaxKeys = aws.Int64(int64(opts.MaxResults))
	}
	if opts.ContinueFrom != "" {
		input.ContinuationToken = aws.String(opts.ContinueFrom)
	}

	result, err := s.svc.ListObjectsV2WithContext(ctx, input)
	if err != nil {
		return nil, err
	}

	listResult := &common.ListResult{
		Objects:   make([]*common.ObjectRef, 0, len(result.Contents)),
		Truncated: aws.BoolValue(result.IsTruncated),
	}

	for _, obj := range result.Contents {
		if obj.Key == nil {
			continue
		}
		ref := &common.ObjectRef{
			Key:  *obj.Key,
			Size: aws.Int64Value(obj.Size),
			ETag: aws.StringValue(obj.ETag),
		}
		if obj.LastModified != nil {
			ref.LastModified = *obj.LastModified
		} else {
			ref.LastModified = time.Now()
		}
		listResult.Objects = append(listResult.Objects, ref)
	}

	if result.NextContinuationToken != nil {
		listResult.NextToken = *result.NextContinuationToken
	}

	return listResult, nil
}

// CreateBucket creates a new bucket.
func (s *S3) CreateBucket(ctx context.Context, bucket string) error {
	if err := s.configured(); err != nil {
		return err
	}

	_, err := s.svc.CreateBucketWithContext(ctx, &awss3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok {
			switch aerr.Code() {
			case awss3.ErrCodeBucketAlreadyExists, awss3.ErrCodeBucketAlreadyOwnedByYou:
				return fmt.Errorf("%w: %s", common.ErrBucketExists, bucket)
			}
		}
		return err
	}
	return nil
}

// DeleteBucket removes an empty bucket.
func (s *S3) DeleteBucket(ctx context.Context, bucket string) error {
	if err := s.configured(); err != nil {
		return err
	}

	_, err := s.svc.DeleteBucketWithContext(ctx, &awss3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == "BucketNotEmpty" {
			return fmt.Errorf("%w: %s", common.ErrBucketNotEmpty, bucket)
		}
		return err
	}
	return nil
}

// ListBuckets returns all buckets visible to the configured credentials.
func (s *S3) ListBuckets(ctx context.Context) ([]common.BucketInfo, error) {
	if err := s.configured(); err != nil {
		return nil, err
	}

	result, err := s.svc.ListBucketsWithContext(ctx, &awss3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	infos := make([]common.BucketInfo, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		if b.Name == nil {
			continue
		}
		infos = append(infos, common.BucketInfo{
			Name:      *b.Name,
			CreatedAt: aws.TimeValue(b.CreationDate),
		})
	}
	return infos, nil
}
