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
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
)

// ExportRequest selects objects across buckets for a zip export
type ExportRequest struct {
	Selections []ExportSelection `json:"selections" binding:"required,min=1"`
} // @name ExportRequest

// ExportSelection is one bucket's key list in an export request
type ExportSelection struct {
	Bucket string   `json:"bucket" binding:"required"`
	Keys   []string `json:"keys" binding:"required,min=1"`
} // @name ExportSelection

// ExportObjects streams the selected objects as one zip archive
// @Summary Batch export
// @Description Streams the selected objects as a single zip archive, grouped by bucket when the selection spans buckets. Missing objects are skipped and recorded as job errors.
// @Tags export
// @Accept json
// @Produce application/zip
// @Param request body ExportRequest true "Selections"
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse
// @Router /export [post]
func (h *Handler) ExportObjects(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	selections := make([]jobs.BucketKeys, 0, len(req.Selections))
	for _, sel := range req.Selections {
		if err := common.ValidateBucketName(sel.Bucket); err != nil {
			RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
			return
		}
		for _, key := range sel.Keys {
			if err := common.ValidateKey(key); err != nil {
				RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
				return
			}
		}
		selections = append(selections, jobs.BucketKeys{Bucket: sel.Bucket, Keys: sel.Keys})
	}

	filename := fmt.Sprintf("export-%s.zip", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	// Headers are committed once the first archive byte flushes, so any
	// failure past this point surfaces in the job record, not the status
	// code.
	result, err := h.coordinator.Export(c.Request.Context(), selections, c.Writer, extractActor(c))
	if err != nil {
		jobID := ""
		if result != nil {
			jobID = result.JobID
		}
		h.logger.Error(c.Request.Context(), "Export finished with error",
			adapters.Field{Key: "job_id", Value: jobID},
			adapters.Field{Key: "error", Value: err.Error()})
	}
}
