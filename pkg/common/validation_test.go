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

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple key", "file.txt", false},
		{"nested key", "a/b/c/file.txt", false},
		{"folder marker", "reports/2025/.keep", false},
		{"unicode key", "docs/résumé.pdf", false},
		{"max length", strings.Repeat("a", MaxKeyLength), false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", MaxKeyLength+1), true},
		{"absolute path", "/etc/passwd", true},
		{"windows path", "c:\\windows", true},
		{"traversal", "a/../b", true},
		{"leading traversal", "../secret", true},
		{"null byte", "file\x00.txt", true},
		{"newline", "file\n.txt", true},
		{"tab", "file\t.txt", true},
		{"backslash", "a\\b", true},
		{"invalid utf8", "file\xff\xfe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestValidateKeyReturnsValidationError(t *testing.T) {
	err := ValidateKey("")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if vErr.Field != "key" {
		t.Errorf("expected field 'key', got %q", vErr.Field)
	}
}

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name    string
		bucket  string
		wantErr bool
	}{
		{"simple", "media", false},
		{"with hyphens", "media-assets-2025", false},
		{"with dots", "backups.daily", false},
		{"digits", "bucket123", false},
		{"min length", "abc", false},
		{"max length", strings.Repeat("a", MaxBucketNameLength), false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", MaxBucketNameLength+1), true},
		{"uppercase", "Media", true},
		{"underscore", "my_bucket", true},
		{"leading hyphen", "-bucket", true},
		{"trailing dot", "bucket.", true},
		{"consecutive dots", "a..b", true},
		{"space", "my bucket", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBucketName(%q) error = %v, wantErr %v", tt.bucket, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	if err := ValidatePrefix(""); err != nil {
		t.Errorf("empty prefix should be valid, got %v", err)
	}
	if err := ValidatePrefix("reports/2025/"); err != nil {
		t.Errorf("trailing slash prefix should be valid, got %v", err)
	}
	if err := ValidatePrefix("../x/"); err == nil {
		t.Error("traversal prefix should be rejected")
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	if got := SanitizeErrorMessage(nil); got != "" {
		t.Errorf("nil error should sanitize to empty, got %q", got)
	}

	long := errors.New(strings.Repeat("x", 500))
	if got := SanitizeErrorMessage(long); len(got) != 256 {
		t.Errorf("expected truncation to 256 bytes, got %d", len(got))
	}
}
