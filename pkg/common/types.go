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

// Package common holds the shared data model and collaborator interfaces
// for the bucket administration control plane.
package common

import (
	"time"
)

// ObjectRef is an immutable snapshot of a stored object as returned by a
// listing or head call. It is descriptive only and carries no ownership.
type ObjectRef struct {
	// Key is the object's flat storage key.
	Key string `json:"key"`

	// Size is the size of the object in bytes.
	Size int64 `json:"size"`

	// LastModified is the timestamp when the object was last modified.
	LastModified time.Time `json:"last_modified"`

	// ContentType is the MIME type of the object, if known.
	ContentType string `json:"content_type,omitempty"`

	// ETag is the entity tag reported by the backend, if any.
	ETag string `json:"etag,omitempty"`
}

// BucketInfo describes a bucket (a named object container).
type BucketInfo struct {
	// Name is the bucket name.
	Name string `json:"name"`

	// CreatedAt is the bucket creation time, if the backend reports one.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ListOptions specifies options for a single listing page.
type ListOptions struct {
	// Prefix filters objects to those starting with this prefix.
	Prefix string

	// MaxResults is the maximum number of results for this page.
	// 0 means use the backend default.
	MaxResults int

	// ContinueFrom is the opaque pagination cursor from a previous
	// ListResult. Empty string means start from the beginning.
	ContinueFrom string
}

// ListResult contains one page of a listing.
type ListResult struct {
	// Objects contains the objects on this page.
	Objects []*ObjectRef

	// NextToken is the cursor for the next page. Empty means no more
	// results are available.
	NextToken string

	// Truncated indicates whether more results are available.
	Truncated bool
}

// FolderMarkerSuffix is the placeholder object suffix used to make an
// otherwise empty key prefix visible as a folder.
const FolderMarkerSuffix = ".keep"

// DefaultContentType is used when a source object carries no content type.
const DefaultContentType = "application/octet-stream"
