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

// Package lister iterates object store listings page by page, carrying the
// opaque pagination cursor forward until the store reports no truncation.
package lister

import (
	"context"
	"fmt"

	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// DefaultPageSize is the number of objects requested per listing call when
// no explicit page size is configured.
const DefaultPageSize = 100

// Lister enumerates objects under a key prefix. It is restartable from
// scratch only: the cursor is opaque and never persisted. The Lister is
// delay-agnostic; backpressure between pages belongs to the caller.
type Lister struct {
	store    common.ObjectStore
	pageSize int
}

// New creates a Lister over the given store. pageSize <= 0 selects
// DefaultPageSize.
func New(store common.ObjectStore, pageSize int) *Lister {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Lister{store: store, pageSize: pageSize}
}

// PageSize returns the configured listing page size.
func (l *Lister) PageSize() int {
	return l.pageSize
}

// PageFunc is invoked once per non-empty listing page.
type PageFunc func(page []*common.ObjectRef) error

// Pages invokes fn for every page of objects under prefix. Enumeration
// terminates when the store reports no truncation OR returns an empty page;
// both are checked because a truncated-but-empty page must not spin
// forever. A listing failure is fatal for the whole enumeration and is
// wrapped in ErrEnumerationFailed. An error returned by fn stops the
// enumeration and is returned as-is.
func (l *Lister) Pages(ctx context.Context, bucket, prefix string, fn PageFunc) error {
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		result, err := l.store.List(ctx, bucket, &common.ListOptions{
			Prefix:       prefix,
			MaxResults:   l.pageSize,
			ContinueFrom: cursor,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrEnumerationFailed, err)
		}

		if len(result.Objects) > 0 {
			if err := fn(result.Objects); err != nil {
				return err
			}
		}

		if !result.Truncated || len(result.Objects) == 0 {
			return nil
		}
		if result.NextToken == "" {
			// Truncated with no cursor would loop on the first page.
			return nil
		}
		cursor = result.NextToken
	}
}

// CollectAll gathers every object under prefix into memory. Intended for
// bounded listings (folder confirmation counts, export selections); bulk
// operations should stream with Pages instead.
func (l *Lister) CollectAll(ctx context.Context, bucket, prefix string) ([]*common.ObjectRef, error) {
	var all []*common.ObjectRef
	err := l.Pages(ctx, bucket, prefix, func(page []*common.ObjectRef) error {
		all = append(all, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// Count returns the number of objects under prefix.
func (l *Lister) Count(ctx context.Context, bucket, prefix string) (int, error) {
	count := 0
	err := l.Pages(ctx, bucket, prefix, func(page []*common.ObjectRef) error {
		count += len(page)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
