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

package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/audit"
)

// ListAuditEntries returns filtered audit history
// @Summary List audit entries
// @Description Lists audit log entries with filtering and allow-listed sorting
// @Tags audit
// @Produce json
// @Param operation_type query string false "Filter by operation type"
// @Param bucket query string false "Filter by bucket"
// @Param status query string false "Filter by status (success|failed)"
// @Param actor query string false "Filter by actor"
// @Param sort_by query string false "Sort column"
// @Param order query string false "asc or desc"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /audit [get]
func (h *Handler) ListAuditEntries(c *gin.Context) {
	filter := audit.Filter{
		OperationType: c.Query("operation_type"),
		Bucket:        c.Query("bucket"),
		Status:        audit.Result(c.Query("status")),
		Actor:         c.Query("actor"),
		SortBy:        c.Query("sort_by"),
		SortDesc:      c.Query("order") != "asc",
	}

	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.Offset = parsed
		}
	}

	var ok bool
	if filter.Since, ok = parseTimeQuery(c, "since"); !ok {
		return
	}
	if filter.Until, ok = parseTimeQuery(c, "until"); !ok {
		return
	}

	entries, err := h.auditor.List(c.Request.Context(), filter)
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "audit entries", entries)
}

// GetAuditSummary returns aggregated audit counts
// @Summary Audit summary
// @Description Aggregates audit entries by operation type and status
// @Tags audit
// @Produce json
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /audit/summary [get]
func (h *Handler) GetAuditSummary(c *gin.Context) {
	since, ok := parseTimeQuery(c, "since")
	if !ok {
		return
	}
	until, ok := parseTimeQuery(c, "until")
	if !ok {
		return
	}

	rows, err := h.auditor.Summary(c.Request.Context(), since, until)
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "audit summary", rows)
}

// parseTimeQuery parses an optional RFC3339 query parameter, responding
// with a 400 on malformed input.
func parseTimeQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, name+" must be RFC3339")
		return time.Time{}, false
	}
	return parsed, true
}
