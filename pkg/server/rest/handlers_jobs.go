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
	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
)

// ListJobs returns the transfer job history
// @Summary List transfer jobs
// @Description Lists transfer jobs newest first, with optional filters
// @Tags jobs
// @Produce json
// @Param operation_type query string false "Filter by operation type"
// @Param status query string false "Filter by status"
// @Param bucket query string false "Filter by bucket"
// @Param owner query string false "Filter by owner"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /jobs [get]
func (h *Handler) ListJobs(c *gin.Context) {
	filter := jobs.ListFilter{
		OperationType: jobs.OperationType(c.Query("operation_type")),
		Status:        jobs.Status(c.Query("status")),
		Bucket:        c.Query("bucket"),
		Owner:         c.Query("owner"),
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
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		filter.Since = since
	}
	if raw := c.Query("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "until must be RFC3339")
			return
		}
		filter.Until = until
	}

	list, err := h.tracker.List(c.Request.Context(), filter)
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "jobs", list)
}

// GetJob returns one transfer job
// @Summary Get a transfer job
// @Description Returns one job by ID
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.tracker.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "job", job)
}

// GetJobEvents returns a job's event stream
// @Summary Get job events
// @Description Returns the append-only event stream of one job
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /jobs/{id}/events [get]
func (h *Handler) GetJobEvents(c *gin.Context) {
	jobID := c.Param("id")

	// A job with no events yet is indistinguishable from a missing job
	// in the events table, so resolve the job first.
	if _, err := h.tracker.Get(c.Request.Context(), jobID); err != nil {
		respondWithMappedError(c, err)
		return
	}

	events, err := h.tracker.Events(c.Request.Context(), jobID)
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "job events", events)
}
