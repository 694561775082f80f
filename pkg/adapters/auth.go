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

package adapters

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned when authentication fails.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingCredentials is returned when required credentials are missing.
	ErrMissingCredentials = errors.New("missing credentials")
)

// Principal represents an authenticated entity (user, service, etc.).
// Authentication itself happens outside the control plane; the adapter only
// extracts an already-validated identity from the request.
type Principal struct {
	// ID is the unique identifier for this principal, typically an email.
	ID string

	// Name is the human-readable name.
	Name string

	// Type indicates the principal type (e.g., "user", "service", "system").
	Type string
}

// Authenticator defines the interface for pluggable identity extraction.
type Authenticator interface {
	// AuthenticateHTTP resolves the principal for an HTTP request.
	// Returns ErrUnauthorized if no valid identity is present.
	AuthenticateHTTP(ctx context.Context, req *http.Request) (*Principal, error)
}

// NoOpAuthenticator allows all requests and reports an anonymous principal.
// Useful for development or when authentication is handled externally.
type NoOpAuthenticator struct{}

// NewNoOpAuthenticator creates a new no-op authenticator.
func NewNoOpAuthenticator() *NoOpAuthenticator {
	return &NoOpAuthenticator{}
}

// AuthenticateHTTP allows all HTTP requests.
func (a *NoOpAuthenticator) AuthenticateHTTP(ctx context.Context, req *http.Request) (*Principal, error) {
	return &Principal{ID: "anonymous", Name: "Anonymous", Type: "anonymous"}, nil
}

// TrustedHeaderAuthenticator trusts an upstream access proxy (e.g.
// Cloudflare Access) to have validated the user and to forward the identity
// in a request header. The proxy must strip the header from client traffic.
type TrustedHeaderAuthenticator struct {
	// Header is the header carrying the validated identity.
	Header string
}

// DefaultIdentityHeader is the header set by Cloudflare Access deployments.
const DefaultIdentityHeader = "Cf-Access-Authenticated-User-Email"

// NewTrustedHeaderAuthenticator creates an authenticator reading the given
// header, falling back to DefaultIdentityHeader when header is empty.
func NewTrustedHeaderAuthenticator(header string) *TrustedHeaderAuthenticator {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return &TrustedHeaderAuthenticator{Header: header}
}

// AuthenticateHTTP extracts the validated identity from the request.
func (a *TrustedHeaderAuthenticator) AuthenticateHTTP(ctx context.Context, req *http.Request) (*Principal, error) {
	identity := strings.TrimSpace(req.Header.Get(a.Header))
	if identity == "" {
		return nil, ErrMissingCredentials
	}

	name := identity
	if at := strings.IndexByte(identity, '@'); at > 0 {
		name = identity[:at]
	}

	return &Principal{ID: identity, Name: name, Type: "user"}, nil
}
