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
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxKeyLength is the maximum allowed length for object keys.
	MaxKeyLength = 1024

	// MaxBucketNameLength is the maximum allowed length for bucket names.
	MaxBucketNameLength = 63

	// MinBucketNameLength is the minimum allowed length for bucket names.
	MinBucketNameLength = 3
)

// ValidationError represents a validation error on a named field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidateKey validates an object key for security issues.
// Returns an error if the key is empty, contains path traversal sequences,
// is an absolute path, contains null bytes or control characters, exceeds
// the maximum length, or is not valid UTF-8.
func ValidateKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Message: "key cannot be empty"}
	}

	if len(key) > MaxKeyLength {
		return &ValidationError{
			Field:   "key",
			Message: fmt.Sprintf("key length exceeds maximum of %d bytes", MaxKeyLength),
		}
	}

	if !utf8.ValidString(key) {
		return &ValidationError{Field: "key", Message: "key is not valid UTF-8"}
	}

	if strings.HasPrefix(key, "/") {
		return &ValidationError{Field: "key", Message: "key cannot be an absolute path"}
	}

	// Windows-style absolute paths (C:\, D:\, ...)
	if len(key) >= 2 && key[1] == ':' {
		return &ValidationError{Field: "key", Message: "key cannot be an absolute path"}
	}

	for i := 0; i < len(key); i++ {
		c := key[i]
		if c == '\x00' {
			return &ValidationError{Field: "key", Message: "key cannot contain null bytes"}
		}
		if c == '\n' || c == '\r' || c == '\t' {
			return &ValidationError{
				Field:   "key",
				Message: fmt.Sprintf("key contains invalid character sequence: %q", string(c)),
			}
		}
		if c == '\\' {
			return &ValidationError{Field: "key", Message: "key cannot contain backslashes"}
		}
	}

	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return &ValidationError{
				Field:   "key",
				Message: "key cannot contain path traversal sequences (..)",
			}
		}
	}

	return nil
}

// ValidateBucketName validates a bucket name against the common
// S3-compatible rules: lowercase letters, digits, hyphens and dots, 3-63
// characters, starting and ending with a letter or digit.
func ValidateBucketName(name string) error {
	if len(name) < MinBucketNameLength || len(name) > MaxBucketNameLength {
		return &ValidationError{
			Field: "bucket",
			Message: fmt.Sprintf("bucket name must be between %d and %d characters",
				MinBucketNameLength, MaxBucketNameLength),
		}
	}

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '.':
		default:
			return &ValidationError{
				Field:   "bucket",
				Message: fmt.Sprintf("bucket name contains invalid character %q", string(c)),
			}
		}
	}

	first, last := name[0], name[len(name)-1]
	if first == '-' || first == '.' || last == '-' || last == '.' {
		return &ValidationError{
			Field:   "bucket",
			Message: "bucket name must start and end with a letter or digit",
		}
	}

	if strings.Contains(name, "..") {
		return &ValidationError{
			Field:   "bucket",
			Message: "bucket name cannot contain consecutive dots",
		}
	}

	return nil
}

// ValidatePrefix validates a folder prefix. An empty prefix is allowed (it
// addresses the whole bucket); a non-empty prefix follows the key rules.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return nil
	}
	if err := ValidateKey(strings.TrimSuffix(prefix, "/")); err != nil {
		return &ValidationError{Field: "prefix", Message: err.Error()}
	}
	return nil
}

// SanitizeErrorMessage strips backend internals out of an error message so
// it can be returned to a client without leaking paths or credentials.
func SanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 256 {
		msg = msg[:256]
	}
	return msg
}
