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
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer injects backpressure between listing pages of a bulk operation
// so sustained enumeration does not saturate the provider's API limits.
type Pacer interface {
	// Wait blocks until the next page may be fetched or the context is
	// cancelled.
	Wait(ctx context.Context) error
}

// DefaultPageDelay is the interval FixedPacer sleeps between pages.
const DefaultPageDelay = 300 * time.Millisecond

// FixedPacer sleeps a fixed delay between pages.
type FixedPacer struct {
	Delay time.Duration
}

// NewFixedPacer creates a FixedPacer. A non-positive delay falls back to
// DefaultPageDelay.
func NewFixedPacer(delay time.Duration) *FixedPacer {
	if delay <= 0 {
		delay = DefaultPageDelay
	}
	return &FixedPacer{Delay: delay}
}

func (p *FixedPacer) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LimiterPacer throttles page fetches with a token bucket, allowing
// short bursts while capping the sustained page rate.
type LimiterPacer struct {
	limiter *rate.Limiter
}

// NewLimiterPacer creates a LimiterPacer allowing pagesPerSecond
// sustained with the given burst.
func NewLimiterPacer(pagesPerSecond float64, burst int) *LimiterPacer {
	return &LimiterPacer{limiter: rate.NewLimiter(rate.Limit(pagesPerSecond), burst)}
}

func (p *LimiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NopPacer applies no delay.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error {
	return ctx.Err()
}
