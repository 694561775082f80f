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

// Package ratelimit applies tiered request limits keyed by the kind of
// operation: destructive calls get the tightest budget, reads the
// loosest. Limits are enforced per identity so one noisy caller cannot
// starve the rest.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Tier classifies a request by blast radius.
type Tier string

const (
	// TierRead covers listings, downloads, and signed URL issuance.
	TierRead Tier = "READ"

	// TierWrite covers uploads, relocations, and other mutations.
	TierWrite Tier = "WRITE"

	// TierDelete covers destructive operations.
	TierDelete Tier = "DELETE"
)

// Limit is a tier's budget: Limit requests per Period.
type Limit struct {
	Limit  int
	Period time.Duration
}

// Limits maps every tier to its budget.
type Limits map[Tier]Limit

// DefaultLimits returns the standard tier budgets.
func DefaultLimits() Limits {
	return Limits{
		TierRead:   {Limit: 120, Period: time.Minute},
		TierWrite:  {Limit: 60, Period: time.Minute},
		TierDelete: {Limit: 20, Period: time.Minute},
	}
}

// Classify maps an HTTP request shape to a tier. The DELETE verb always
// classifies as TierDelete regardless of path; signed URL issuance is a
// read even though it mints a credential.
func Classify(method, path string) Tier {
	switch method {
	case http.MethodDelete:
		return TierDelete
	case http.MethodGet, http.MethodHead:
		return TierRead
	default:
		if strings.HasSuffix(path, "/bulk-delete") {
			return TierDelete
		}
		return TierWrite
	}
}

// Decision is the outcome of a limit check. When Allowed is false,
// RetryAfter equals the tier's full period: the caller is told to back
// off for a whole window rather than probe for the next free slot.
type Decision struct {
	Allowed    bool
	Tier       Tier
	Limit      int
	Period     time.Duration
	RetryAfter time.Duration
}

// CounterStore tracks request counts per (tier, identity) pair. The
// default is process-local; a fleet-shared implementation can replace it
// without touching the limiter.
type CounterStore interface {
	// Allow consumes one slot from the pair's budget and reports whether
	// it was available.
	Allow(tier Tier, identity string, limit Limit) bool
}

// localCounters is the in-process CounterStore built on token buckets.
type localCounters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLocalCounters() *localCounters {
	return &localCounters{limiters: make(map[string]*rate.Limiter)}
}

func (s *localCounters) Allow(tier Tier, identity string, limit Limit) bool {
	key := string(tier) + "|" + identity

	s.mu.Lock()
	limiter, ok := s.limiters[key]
	if !ok {
		perSecond := float64(limit.Limit) / limit.Period.Seconds()
		limiter = rate.NewLimiter(rate.Limit(perSecond), limit.Limit)
		s.limiters[key] = limiter
	}
	s.mu.Unlock()

	return limiter.Allow()
}

// Limiter checks requests against tiered per-identity budgets.
type Limiter struct {
	limits Limits
	store  CounterStore
}

// New creates a Limiter with the given budgets. Nil limits selects
// DefaultLimits; nil store selects the in-process counter store.
func New(limits Limits, store CounterStore) *Limiter {
	if limits == nil {
		limits = DefaultLimits()
	}
	if store == nil {
		store = newLocalCounters()
	}
	return &Limiter{limits: limits, store: store}
}

// Check consumes one slot from the (tier, identity) budget. Unknown tiers
// fall back to the WRITE budget rather than passing unchecked.
func (l *Limiter) Check(tier Tier, identity string) Decision {
	limit, ok := l.limits[tier]
	if !ok {
		limit = l.limits[TierWrite]
	}

	decision := Decision{
		Allowed: l.store.Allow(tier, identity, limit),
		Tier:    tier,
		Limit:   limit.Limit,
		Period:  limit.Period,
	}
	if !decision.Allowed {
		decision.RetryAfter = limit.Period
	}
	return decision
}
