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

package filetypes

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBuiltinCatalog(t *testing.T) {
	catalog := New(nil, time.Minute)
	defer catalog.Stop()

	types, err := catalog.Get(context.Background())
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(types) == 0 {
		t.Fatal("builtin catalog is empty")
	}

	byExt := make(map[string]FileType, len(types))
	for _, ft := range types {
		byExt[ft.Extension] = ft
	}
	if byExt[".pdf"].ContentType != "application/pdf" {
		t.Errorf(".pdf content type = %q", byExt[".pdf"].ContentType)
	}
	if byExt[".jpg"].Category != "image" {
		t.Errorf(".jpg category = %q", byExt[".jpg"].Category)
	}
}

func TestGetCachesSource(t *testing.T) {
	loads := 0
	source := SourceFunc(func(ctx context.Context) ([]FileType, error) {
		loads++
		return []FileType{{Extension: ".txt", ContentType: "text/plain"}}, nil
	})

	catalog := New(source, time.Minute)
	defer catalog.Stop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := catalog.Get(ctx); err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
	}
	if loads != 1 {
		t.Errorf("source loaded %d times, want 1", loads)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	loads := 0
	source := SourceFunc(func(ctx context.Context) ([]FileType, error) {
		loads++
		return []FileType{{Extension: ".txt", ContentType: "text/plain"}}, nil
	})

	catalog := New(source, time.Minute)
	defer catalog.Stop()
	ctx := context.Background()

	_, _ = catalog.Get(ctx)
	catalog.Invalidate()
	_, _ = catalog.Get(ctx)

	if loads != 2 {
		t.Errorf("source loaded %d times, want 2", loads)
	}
}

func TestGetSourceError(t *testing.T) {
	wantErr := errors.New("catalog backend down")
	source := SourceFunc(func(ctx context.Context) ([]FileType, error) {
		return nil, wantErr
	})

	catalog := New(source, time.Minute)
	defer catalog.Stop()

	if _, err := catalog.Get(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestExpiryReloads(t *testing.T) {
	loads := 0
	source := SourceFunc(func(ctx context.Context) ([]FileType, error) {
		loads++
		return []FileType{{Extension: ".txt"}}, nil
	})

	catalog := New(source, 10*time.Millisecond)
	defer catalog.Stop()
	ctx := context.Background()

	_, _ = catalog.Get(ctx)
	time.Sleep(30 * time.Millisecond)
	_, _ = catalog.Get(ctx)

	if loads != 2 {
		t.Errorf("source loaded %d times after expiry, want 2", loads)
	}
}
