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

package jobs

import (
	"encoding/json"
	"fmt"
)

// Metadata is the typed per-operation payload stored on a job. Each
// operation type carries its own variant rather than an untyped map; the
// stored JSON is decoded back into the matching variant using the job's
// operation type as the tag.
type Metadata interface {
	// AppliesTo reports whether this variant is valid for op.
	AppliesTo(op OperationType) bool
}

// FileSelection lists the object keys a bulk upload/download/delete acted on.
type FileSelection struct {
	Keys []string `json:"keys"`
}

func (m *FileSelection) AppliesTo(op OperationType) bool {
	return op == OpBulkUpload || op == OpBulkDownload || op == OpBulkDelete
}

// Relocation describes a single-object move or copy.
type Relocation struct {
	SourceKey  string `json:"source_key"`
	DestBucket string `json:"dest_bucket"`
	DestKey    string `json:"dest_key"`
}

func (m *Relocation) AppliesTo(op OperationType) bool {
	return op == OpFileMove || op == OpFileCopy
}

// FolderRelocation describes a folder move, copy, or delete.
type FolderRelocation struct {
	SourcePrefix string `json:"source_prefix"`
	DestBucket   string `json:"dest_bucket,omitempty"`
	DestPrefix   string `json:"dest_prefix,omitempty"`
}

func (m *FolderRelocation) AppliesTo(op OperationType) bool {
	return op == OpFolderMove || op == OpFolderCopy || op == OpFolderDelete
}

// BucketRename records the destination name of a bucket rename.
type BucketRename struct {
	NewName string `json:"new_name"`
}

func (m *BucketRename) AppliesTo(op OperationType) bool {
	return op == OpBucketRename
}

// ExportSelection lists the per-bucket key sets of a batch export.
type ExportSelection struct {
	Selections []BucketKeys `json:"selections"`
}

// BucketKeys is one bucket's key list inside an export selection.
type BucketKeys struct {
	Bucket string   `json:"bucket"`
	Keys   []string `json:"keys"`
}

func (m *ExportSelection) AppliesTo(op OperationType) bool {
	return op == OpBatchExport
}

// MarshalMetadata serializes a metadata variant for storage. A nil variant
// serializes to the empty string.
func MarshalMetadata(op OperationType, m Metadata) (string, error) {
	if m == nil {
		return "", nil
	}
	if !m.AppliesTo(op) {
		return "", fmt.Errorf("metadata variant %T does not apply to operation %s", m, op)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// UnmarshalMetadata decodes stored metadata into the variant selected by
// the operation type. Unknown operation types and empty payloads yield nil.
func UnmarshalMetadata(op OperationType, raw string) (Metadata, error) {
	if raw == "" {
		return nil, nil
	}

	var m Metadata
	switch op {
	case OpBulkUpload, OpBulkDownload, OpBulkDelete:
		m = &FileSelection{}
	case OpFileMove, OpFileCopy:
		m = &Relocation{}
	case OpFolderMove, OpFolderCopy, OpFolderDelete:
		m = &FolderRelocation{}
	case OpBucketRename:
		m = &BucketRename{}
	case OpBatchExport:
		m = &ExportSelection{}
	default:
		return nil, nil
	}

	if err := json.Unmarshal([]byte(raw), m); err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", op, err)
	}
	return m, nil
}
