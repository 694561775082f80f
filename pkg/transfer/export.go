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
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
)

// Export streams the selected objects into a single zip archive written
// to w. Selections spanning multiple buckets are grouped under a
// bucket-named top-level folder inside the archive. A fetch failure for
// one object is recorded as a job error and that object is skipped; the
// archive is still produced for the rest. A write failure on w itself is
// fatal because the archive can no longer be completed.
func (c *Coordinator) Export(ctx context.Context, selections []jobs.BucketKeys, w io.Writer, actor string) (*BulkResult, error) {
	started := time.Now()

	buckets := make([]string, 0, len(selections))
	total := int64(0)
	for _, sel := range selections {
		buckets = append(buckets, sel.Bucket)
		total += int64(len(sel.Keys))
	}

	job := &jobs.TransferJob{
		ID:            jobs.NewJobID(jobs.OpBatchExport),
		Bucket:        strings.Join(buckets, ","),
		OperationType: jobs.OpBatchExport,
		Owner:         actor,
		Metadata:      &jobs.ExportSelection{Selections: selections},
	}
	job.TotalItems = &total
	c.beginJob(ctx, job)

	t := &tally{}
	zw := zip.NewWriter(w)
	multiBucket := len(selections) > 1

	var runErr error
loop:
	for _, sel := range selections {
		for _, key := range sel.Keys {
			if err := ctx.Err(); err != nil {
				runErr = err
				break loop
			}

			entryName := key
			if multiBucket {
				entryName = sel.Bucket + "/" + key
			}

			err := c.addZipEntry(ctx, zw, sel.Bucket, key, entryName)
			if err != nil && !isItemError(err) {
				// The archive stream is broken; nothing more can land.
				runErr = err
				break loop
			}
			c.record(ctx, job.ID, t, err)
			c.maybeProgress(ctx, job.ID, t, total)
		}
	}

	if err := zw.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to finalize archive: %w", err)
	}

	c.auditBulk(ctx, "batch_export", job.Bucket, "", actor, t, runErr)
	return c.finishJob(ctx, job.ID, t, started, runErr)
}

// addZipEntry fetches one object and copies it into the archive under
// entryName. Fetch failures come back as item errors the caller tallies;
// archive write failures come back raw and abort the export.
func (c *Coordinator) addZipEntry(ctx context.Context, zw *zip.Writer, bucket, key, entryName string) error {
	body, ref, err := c.store.Get(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, common.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s/%s", common.ErrSourceNotFound, bucket, key)
		}
		return fmt.Errorf("%w: %s/%s: %v", common.ErrFetchFailed, bucket, key, err)
	}
	defer body.Close()

	header := &zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: ref.LastModified,
	}
	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %s: %w", entryName, err)
	}
	if _, err := io.Copy(entry, body); err != nil {
		return fmt.Errorf("failed to write archive entry %s: %w", entryName, err)
	}
	return nil
}

// isItemError reports whether err affects only one object rather than the
// archive stream as a whole.
func isItemError(err error) bool {
	return errors.Is(err, common.ErrSourceNotFound) || errors.Is(err, common.ErrFetchFailed)
}
