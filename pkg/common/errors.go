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

import "errors"

var (
	// Configuration errors

	// ErrNotConfigured is returned when a storage backend is not properly configured.
	ErrNotConfigured = errors.New("not configured")

	// ErrBucketNotSet is returned when required bucket settings are missing.
	ErrBucketNotSet = errors.New("bucket not set")

	// Object store errors

	// ErrObjectNotFound is returned when the requested object does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the requested bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrBucketExists is returned when creating a bucket whose name is taken.
	ErrBucketExists = errors.New("bucket already exists")

	// ErrBucketNotEmpty is returned when deleting a bucket that still holds objects.
	ErrBucketNotEmpty = errors.New("bucket not empty")

	// Relocation errors

	// ErrSourceNotFound is returned by a transfer whose source object is missing.
	ErrSourceNotFound = errors.New("source object not found")

	// ErrFetchFailed is returned when the source object could not be read.
	ErrFetchFailed = errors.New("failed to fetch source object")

	// ErrStoreFailed is returned when the destination write failed.
	ErrStoreFailed = errors.New("failed to store destination object")

	// ErrDestinationExists is returned when the destination key is already occupied.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrSameSourceAndDest is returned when a relocation would be a no-op.
	ErrSameSourceAndDest = errors.New("source and destination are identical")

	// ErrDestinationInsideSource is returned when a folder relocation's
	// destination prefix lives under its source prefix. Moving a folder
	// into its own subtree would re-enumerate the objects it just wrote.
	ErrDestinationInsideSource = errors.New("destination is inside the source folder")

	// ErrEnumerationFailed is returned when a bulk operation's listing failed.
	// Unlike per-object failures, this aborts the whole operation.
	ErrEnumerationFailed = errors.New("object enumeration failed")
)
