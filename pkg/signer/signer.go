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

// Package signer issues and verifies HMAC-signed download URLs. A signed
// URL grants time-boxed access to one object without further
// authentication; staleness is the only revocation mechanism.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const (
	// SignatureParam is the query parameter carrying the signature.
	SignatureParam = "sig"

	// TimestampParam is the query parameter carrying the issue time as a
	// unix timestamp.
	TimestampParam = "expires"

	// DefaultTTL is how long a signed URL stays valid.
	DefaultTTL = time.Hour
)

var (
	// ErrInvalidSignature is returned when the signature does not match
	// the canonical string.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrExpired is returned when the URL's validity window has passed.
	ErrExpired = errors.New("signed url expired")

	// ErrMissingParam is returned when the signature or timestamp
	// parameter is absent.
	ErrMissingParam = errors.New("missing signature parameter")
)

// Signer signs and verifies URL path+query pairs with HMAC-SHA256.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// New creates a Signer with the given secret. ttl <= 0 selects DefaultTTL.
func New(secret []byte, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}
}

// TTL returns the validity window applied to issued URLs.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign returns the query string for path extended with the timestamp and
// signature parameters. path must be the percent-decoded request path;
// query holds the caller's existing parameters.
func (s *Signer) Sign(path string, query url.Values) url.Values {
	signed := url.Values{}
	for k, vs := range query {
		if k == SignatureParam {
			continue
		}
		signed[k] = vs
	}
	signed.Set(TimestampParam, strconv.FormatInt(s.now().Unix(), 10))

	mac := s.compute(path, signed)
	signed.Set(SignatureParam, mac)
	return signed
}

// Verify checks a presented path and raw query against the secret and the
// validity window. The canonical string is reconstructed exactly as Sign
// built it: percent-decoded path, all parameters except the signature,
// keys sorted. Signature comparison is constant time.
func (s *Signer) Verify(rawPath, rawQuery string) error {
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return fmt.Errorf("%w: undecodable path", ErrInvalidSignature)
	}

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return fmt.Errorf("%w: undecodable query", ErrInvalidSignature)
	}

	presented := query.Get(SignatureParam)
	issuedRaw := query.Get(TimestampParam)
	if presented == "" || issuedRaw == "" {
		return ErrMissingParam
	}

	issued, err := strconv.ParseInt(issuedRaw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
	}

	canonical := url.Values{}
	for k, vs := range query {
		if k == SignatureParam {
			continue
		}
		canonical[k] = vs
	}

	expected := s.compute(path, canonical)
	if !hmac.Equal([]byte(expected), []byte(presented)) {
		return ErrInvalidSignature
	}

	// Expiry is checked after the signature so a forged timestamp cannot
	// distinguish "expired" from "invalid" responses for probing.
	issuedAt := time.Unix(issued, 0)
	now := s.now()
	if now.After(issuedAt.Add(s.ttl)) || issuedAt.After(now.Add(time.Minute)) {
		return ErrExpired
	}

	return nil
}

// compute builds the canonical string "path?key=value&..." with keys in
// sorted order (url.Values.Encode sorts) and returns its hex HMAC.
func (s *Signer) compute(path string, query url.Values) string {
	canonical := path + "?" + query.Encode()
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}
