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

// Package memory provides an in-memory implementation of the object store
// interface. It is used for testing, development, and scenarios where
// persistence is not required.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// object is a stored object with its data and descriptive metadata.
type object struct {
	data []byte
	ref  common.ObjectRef
}

// bucket holds the objects of one named container.
type bucket struct {
	createdAt time.Time
	objects   map[string]*object
}

// Memory is a multi-bucket object store backed by process memory. It is
// safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// New creates a new Memory store.
func New() *Memory {
	return &Memory{buckets: make(map[string]*bucket)}
}

// Configure sets up the backend. The memory backend has no settings.
func (m *Memory) Configure(settings map[string]string) error {
	return nil
}

func (m *Memory) getBucket(name string) (*bucket, error) {
	b, ok := m.buckets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrBucketNotFound, name)
	}
	return b, nil
}

// Put stores an object under bucket/key.
func (m *Memory) Put(ctx context.Context, bucketName, key string, data io.Reader, contentType string) error {
	if err := common.ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := io.ReadAll(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.getBucket(bucketName)
	if err != nil {
		return err
	}

	now := time.Now()
	b.objects[key] = &object{
		data: payload,
		ref: common.ObjectRef{
			Key:          key,
			Size:         int64(len(payload)),
			LastModified: now,
			ContentType:  contentType,
			ETag:         fmt.Sprintf("%d-%d", now.UnixNano(), len(payload)),
		},
	}
	return nil
}

// Get retrieves an object's bytes and metadata.
func (m *Memory) Get(ctx context.Context, bucketName, key string) (io.ReadCloser, *common.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.getBucket(bucketName)
	if err != nil {
		return nil, nil, err
	}

	obj, ok := b.objects[key]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s/%s", common.ErrObjectNotFound, bucketName, key)
	}

	ref := obj.ref
	return io.NopCloser(bytes.NewReader(obj.data)), &ref, nil
}

// Head retrieves only the metadata for an object.
func (m *Memory) Head(ctx context.Context, bucketName, key string) (*common.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.getBucket(bucketName)
	if err != nil {
		return nil, err
	}

	obj, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", common.ErrObjectNotFound, bucketName, key)
	}

	ref := obj.ref
	return &ref, nil
}

// Exists reports whether an object exists.
func (m *Memory) Exists(ctx context.Context, bucketName, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.getBucket(bucketName)
	if err != nil {
		return false, err
	}

	_, ok := b.objects[key]
	return ok, nil
}

// Delete removes an object. Deleting a missing key is a no-op success.
func (m *Memory) Delete(ctx context.Context, bucketName, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.getBucket(bucketName)
	if err != nil {
		return err
	}

	delete(b.objects, key)
	return nil
}

// List returns one page of objects filtered by prefix in ascending key
// order. The pagination cursor is the last key of the previous page.
func (m *Memory) List(ctx context.Context, bucketName string, opts *common.ListOptions) (*common.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &common.ListOptions{}
	}

	pageSize := opts.MaxResults
	if pageSize <= 0 {
		pageSize = 100
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	b, err := m.getBucket(bucketName)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(b.objects))
	for key := range b.objects {
		if strings.HasPrefix(key, opts.Prefix) && key > opts.ContinueFrom {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	truncated := len(keys) > pageSize
	if truncated {
		keys = keys[:pageSize]
	}

	result := &common.ListResult{
		Objects:   make([]*common.ObjectRef, 0, len(keys)),
		Truncated: truncated,
	}
	for _, key := range keys {
		ref := b.objects[key].ref
		result.Objects = append(result.Objects, &ref)
	}
	if truncated && len(keys) > 0 {
		result.NextToken = keys[len(keys)-1]
	}

	return result, nil
}

// CreateBucket creates a new bucket.
func (m *Memory) CreateBucket(ctx context.Context, bucketName string) error {
	if err := common.ValidateBucketName(bucketName); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.buckets[bucketName]; ok {
		return fmt.Errorf("%w: %s", common.ErrBucketExists, bucketName)
	}

	m.buckets[bucketName] = &bucket{
		createdAt: time.Now(),
		objects:   make(map[string]*object),
	}
	return nil
}

// DeleteBucket removes an empty bucket.
func (m *Memory) DeleteBucket(ctx context.Context, bucketName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b, err := m.getBucket(bucketName)
	if err != nil {
		return err
	}
	if len(b.objects) > 0 {
		return fmt.Errorf("%w: %s", common.ErrBucketNotEmpty, bucketName)
	}

	delete(m.buckets, bucketName)
	return nil
}

// ListBuckets returns all buckets sorted by name.
func (m *Memory) ListBuckets(ctx context.Context) ([]common.BucketInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]common.BucketInfo, 0, len(m.buckets))
	for name, b := range m.buckets {
		infos = append(infos, common.BucketInfo{Name: name, CreatedAt: b.createdAt})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}
