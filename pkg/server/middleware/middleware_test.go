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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/ratelimit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDGenerated(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())

	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seen, "handler should see a generated request id")
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader), "response header should echo the id")
}

func TestRequestIDPropagated(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())

	var seen string
	router.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	router.ServeHTTP(w, req)

	assert.Equal(t, "caller-supplied-id", seen)
	assert.Equal(t, "caller-supplied-id", w.Header().Get(RequestIDHeader))
}

func TestGetRequestIDAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	assert.Empty(t, GetRequestID(req.Context()))
}

func newRateLimitedRouter(limits ratelimit.Limits) *gin.Engine {
	router := gin.New()
	router.Use(RateLimitMiddleware(&RateLimitConfig{Limits: limits}, adapters.NewNoOpLogger()))
	router.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.DELETE("/items/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	router := newRateLimitedRouter(ratelimit.Limits{
		ratelimit.TierRead:   {Limit: 5, Period: time.Minute},
		ratelimit.TierWrite:  {Limit: 5, Period: time.Minute},
		ratelimit.TierDelete: {Limit: 5, Period: time.Minute},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "READ", w.Header().Get("X-RateLimit-Tier"))
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1m0s", w.Header().Get("X-RateLimit-Period"))
}

func TestRateLimitDenies(t *testing.T) {
	router := newRateLimitedRouter(ratelimit.Limits{
		ratelimit.TierRead:   {Limit: 5, Period: time.Minute},
		ratelimit.TierWrite:  {Limit: 5, Period: time.Minute},
		ratelimit.TierDelete: {Limit: 1, Period: time.Minute},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items/x", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items/x", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "DELETE", body["tier"])
	assert.EqualValues(t, 1, body["limit"])
	assert.EqualValues(t, 60, body["retry_after"])

	// The read budget is untouched.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitUsesPrincipalIdentity(t *testing.T) {
	limits := ratelimit.Limits{
		ratelimit.TierRead:   {Limit: 1, Period: time.Minute},
		ratelimit.TierWrite:  {Limit: 1, Period: time.Minute},
		ratelimit.TierDelete: {Limit: 1, Period: time.Minute},
	}

	router := gin.New()
	principal := ""
	router.Use(func(c *gin.Context) {
		if principal != "" {
			c.Set("principal", &adapters.Principal{ID: principal})
		}
		c.Next()
	})
	router.Use(RateLimitMiddleware(&RateLimitConfig{Limits: limits}, adapters.NewNoOpLogger()))
	router.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func() int {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items", nil))
		return w.Code
	}

	// Spend alice's read budget, then switch identities: bob starts fresh
	// even though both requests come from the same address.
	principal = "alice"
	require.Equal(t, http.StatusOK, get())
	require.Equal(t, http.StatusTooManyRequests, get())

	principal = "bob"
	assert.Equal(t, http.StatusOK, get())
}
