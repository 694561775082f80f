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
	"fmt"

	"github.com/jeremyhahn/go-bucketadmin/pkg/audit"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// RelocateObject moves (move=true) or copies (move=false) a single
// object. Identity relocations are rejected before any store call, and an
// existing destination is refused for every relocation variant so no
// rename, move, or copy silently overwrites data.
func (c *Coordinator) RelocateObject(ctx context.Context, src, dst Ref, move bool, actor string) (*Result, error) {
	auditOp := "file_copy"
	if move {
		auditOp = "file_move"
	}

	if src.Bucket == dst.Bucket && src.Key == dst.Key {
		return nil, common.ErrSameSourceAndDest
	}
	if err := common.ValidateKey(dst.Key); err != nil {
		return nil, err
	}

	exists, err := c.store.Exists(ctx, dst.Bucket, dst.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination %s: %w", dst, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", common.ErrDestinationExists, dst)
	}

	res := c.executor.Transfer(ctx, src, dst, move)

	entry := &audit.Entry{
		OperationType: auditOp,
		Bucket:        src.Bucket,
		ObjectKey:     src.Key,
		DestBucket:    dst.Bucket,
		DestKey:       dst.Key,
		Actor:         actor,
		Status:        audit.ResultSuccess,
		SizeBytes:     res.BytesCopied,
	}
	if res.Err != nil {
		entry.Status = audit.ResultFailure
		entry.Metadata = map[string]any{"error": res.Err.Error()}
	} else if res.SourceRetained {
		entry.Metadata = map[string]any{"source_retained": true}
	}
	//nolint:errcheck // audit writes are best-effort
	c.auditor.Record(ctx, entry)

	if res.Err != nil {
		return nil, res.Err
	}
	return &res, nil
}

// CreateFolder materializes an empty folder by writing its zero-byte
// marker object. Flat namespaces have no real directories; the marker
// keeps the prefix listable before any content lands under it.
func (c *Coordinator) CreateFolder(ctx context.Context, bucket, prefix, actor string) (string, error) {
	prefix = normalizePrefix(prefix)
	if err := common.ValidatePrefix(prefix); err != nil {
		return "", err
	}

	markerKey := prefix + common.FolderMarkerSuffix
	err := c.store.Put(ctx, bucket, markerKey, bytes.NewReader(nil), common.DefaultContentType)
	if err != nil {
		c.auditor.Failure(ctx, "folder_create", bucket, prefix, actor, err)
		return "", fmt.Errorf("%w: %s/%s: %v", common.ErrStoreFailed, bucket, markerKey, err)
	}

	c.auditor.Success(ctx, "folder_create", bucket, prefix, actor)
	return markerKey, nil
}
