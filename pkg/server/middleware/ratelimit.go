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

package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/ratelimit"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Limits are the per-tier budgets. Nil selects the defaults.
	Limits ratelimit.Limits

	// Store is the counter backend. Nil selects the in-process store.
	Store ratelimit.CounterStore

	// IdentityFunc extracts the limit identity from a request. Nil falls
	// back to the authenticated principal, then the client IP.
	IdentityFunc func(c *gin.Context) string
}

// DefaultRateLimitConfig returns a rate limit config with sensible defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Limits: ratelimit.DefaultLimits(),
	}
}

// defaultIdentity prefers the authenticated principal so limits follow
// the actor across addresses; unauthenticated requests fall back to IP.
func defaultIdentity(c *gin.Context) string {
	if p, exists := c.Get("principal"); exists {
		if principal, ok := p.(*adapters.Principal); ok && principal.ID != "" {
			return principal.ID
		}
	}
	return c.ClientIP()
}

// RateLimitMiddleware enforces tiered per-identity limits. Every request
// is classified by method and path; a denied request gets a 429 with the
// tier, limit, period, and a Retry-After of the full period.
func RateLimitMiddleware(config *RateLimitConfig, logger adapters.Logger) gin.HandlerFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if logger == nil {
		logger = adapters.NewDefaultLogger()
	}
	identityFunc := config.IdentityFunc
	if identityFunc == nil {
		identityFunc = defaultIdentity
	}

	limiter := ratelimit.New(config.Limits, config.Store)

	return func(c *gin.Context) {
		tier := ratelimit.Classify(c.Request.Method, c.Request.URL.Path)
		identity := identityFunc(c)

		decision := limiter.Check(tier, identity)

		c.Header("X-RateLimit-Tier", string(decision.Tier))
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Period", decision.Period.String())

		if !decision.Allowed {
			logger.Warn(c.Request.Context(), "Rate limit exceeded",
				adapters.Field{Key: "tier", Value: string(decision.Tier)},
				adapters.Field{Key: "identity", Value: identity},
				adapters.Field{Key: "path", Value: c.Request.URL.Path})

			c.Header("Retry-After", strconv.Itoa(int(decision.RetryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       http.StatusText(http.StatusTooManyRequests),
				"code":        http.StatusTooManyRequests,
				"message":     fmt.Sprintf("%s tier limit of %d per %s exceeded", decision.Tier, decision.Limit, decision.Period),
				"tier":        string(decision.Tier),
				"limit":       decision.Limit,
				"period":      decision.Period.String(),
				"retry_after": int(decision.RetryAfter.Seconds()),
			})
			return
		}

		c.Next()
	}
}
