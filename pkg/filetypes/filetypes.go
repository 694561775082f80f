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

// Package filetypes serves the supported-file-type catalog behind a TTL
// cache, so catalog changes propagate by expiry instead of restarts.
package filetypes

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// FileType describes one supported upload type.
type FileType struct {
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Category    string `json:"category"`
	MaxSizeMB   int64  `json:"max_size_mb,omitempty"`
}

// Source supplies the catalog contents. The default source returns the
// built-in table; deployments can plug a database or remote source in.
type Source interface {
	Load(ctx context.Context) ([]FileType, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) ([]FileType, error)

func (f SourceFunc) Load(ctx context.Context) ([]FileType, error) {
	return f(ctx)
}

// DefaultTTL is how long a loaded catalog stays cached.
const DefaultTTL = 5 * time.Minute

const cacheKey = "catalog"

// Catalog caches the supported-file-type list with a declared TTL.
type Catalog struct {
	source Source
	cache  *ttlcache.Cache[string, []FileType]
}

// New creates a Catalog over source. ttl <= 0 selects DefaultTTL; a nil
// source selects the built-in table.
func New(source Source, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if source == nil {
		source = SourceFunc(builtinSource)
	}

	cache := ttlcache.New[string, []FileType](
		ttlcache.WithTTL[string, []FileType](ttl),
		ttlcache.WithDisableTouchOnHit[string, []FileType](),
	)
	go cache.Start()

	return &Catalog{source: source, cache: cache}
}

// Get returns the catalog, loading from the source on a cache miss or
// after expiry.
func (c *Catalog) Get(ctx context.Context) ([]FileType, error) {
	if item := c.cache.Get(cacheKey); item != nil && !item.IsExpired() {
		return item.Value(), nil
	}

	types, err := c.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, types, ttlcache.DefaultTTL)
	return types, nil
}

// Invalidate drops the cached catalog so the next Get reloads.
func (c *Catalog) Invalidate() {
	c.cache.Delete(cacheKey)
}

// Stop halts the cache's expiry loop.
func (c *Catalog) Stop() {
	c.cache.Stop()
}

func builtinSource(ctx context.Context) ([]FileType, error) {
	return []FileType{
		{Extension: ".jpg", ContentType: "image/jpeg", Category: "image"},
		{Extension: ".jpeg", ContentType: "image/jpeg", Category: "image"},
		{Extension: ".png", ContentType: "image/png", Category: "image"},
		{Extension: ".gif", ContentType: "image/gif", Category: "image"},
		{Extension: ".webp", ContentType: "image/webp", Category: "image"},
		{Extension: ".svg", ContentType: "image/svg+xml", Category: "image"},
		{Extension: ".pdf", ContentType: "application/pdf", Category: "document"},
		{Extension: ".txt", ContentType: "text/plain", Category: "document"},
		{Extension: ".md", ContentType: "text/markdown", Category: "document"},
		{Extension: ".csv", ContentType: "text/csv", Category: "document"},
		{Extension: ".json", ContentType: "application/json", Category: "document"},
		{Extension: ".xml", ContentType: "application/xml", Category: "document"},
		{Extension: ".mp4", ContentType: "video/mp4", Category: "video"},
		{Extension: ".webm", ContentType: "video/webm", Category: "video"},
		{Extension: ".mov", ContentType: "video/quicktime", Category: "video"},
		{Extension: ".mp3", ContentType: "audio/mpeg", Category: "audio"},
		{Extension: ".wav", ContentType: "audio/wav", Category: "audio"},
		{Extension: ".ogg", ContentType: "audio/ogg", Category: "audio"},
		{Extension: ".zip", ContentType: "application/zip", Category: "archive"},
		{Extension: ".tar", ContentType: "application/x-tar", Category: "archive"},
		{Extension: ".gz", ContentType: "application/gzip", Category: "archive"},
	}, nil
}
