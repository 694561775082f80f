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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// CreateBucketRequest is the body of a bucket create
type CreateBucketRequest struct {
	Name string `json:"name" binding:"required" example:"media-assets"`
} // @name CreateBucketRequest

// RenameBucketRequest is the body of a bucket rename
type RenameBucketRequest struct {
	NewName string `json:"newName" binding:"required" example:"media-assets-2025"`
} // @name RenameBucketRequest

// ListBuckets handles bucket listing
// @Summary List buckets
// @Description Returns all buckets visible to the configured backend
// @Tags buckets
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /buckets [get]
func (h *Handler) ListBuckets(c *gin.Context) {
	buckets, err := h.store.ListBuckets(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err)
		return
	}

	response := make([]BucketResponse, 0, len(buckets))
	for _, b := range buckets {
		resp := BucketResponse{Name: b.Name}
		if !b.CreatedAt.IsZero() {
			resp.CreatedAt = b.CreatedAt.Format(time.RFC3339)
		}
		response = append(response, resp)
	}

	RespondWithSuccess(c, http.StatusOK, "buckets", response)
}

// CreateBucket handles bucket creation
// @Summary Create a bucket
// @Description Creates a new bucket
// @Tags buckets
// @Accept json
// @Produce json
// @Param request body CreateBucketRequest true "Bucket name"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /buckets [post]
func (h *Handler) CreateBucket(c *gin.Context) {
	var req CreateBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := common.ValidateBucketName(req.Name); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}

	actor := extractActor(c)
	if err := h.store.CreateBucket(c.Request.Context(), req.Name); err != nil {
		h.auditor.Failure(c.Request.Context(), "bucket_create", req.Name, "", actor, err)
		respondWithMappedError(c, err)
		return
	}

	h.auditor.Success(c.Request.Context(), "bucket_create", req.Name, "", actor)
	RespondWithSuccess(c, http.StatusCreated, "bucket created", gin.H{"name": req.Name})
}

// DeleteBucket handles bucket deletion
// @Summary Delete a bucket
// @Description Deletes a bucket. With force=true every object is deleted first; without it only an empty bucket is removed.
// @Tags buckets
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param force query bool false "Delete all objects first"
// @Success 200 {object} BulkOperationResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /buckets/{bucket} [delete]
func (h *Handler) DeleteBucket(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}
	actor := extractActor(c)

	if c.Query("force") != "true" {
		if err := h.store.DeleteBucket(c.Request.Context(), bucket); err != nil {
			h.auditor.Failure(c.Request.Context(), "bucket_delete", bucket, "", actor, err)
			respondWithMappedError(c, err)
			return
		}
		h.auditor.Success(c.Request.Context(), "bucket_delete", bucket, "", actor)
		RespondWithSuccess(c, http.StatusOK, "bucket deleted", nil)
		return
	}

	result, err := h.coordinator.ForceDeleteBucket(c.Request.Context(), bucket, actor)
	if err != nil && result == nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithBulkResult(c, result)
}

// RenameBucket handles bucket renaming
// @Summary Rename a bucket
// @Description Creates the new bucket, copies every object, deletes the originals, and removes the old bucket
// @Tags buckets
// @Accept json
// @Produce json
// @Param bucket path string true "Current bucket name"
// @Param request body RenameBucketRequest true "New bucket name"
// @Success 200 {object} BulkOperationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /buckets/{bucket} [patch]
func (h *Handler) RenameBucket(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}

	var req RenameBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.coordinator.RenameBucket(c.Request.Context(), bucket, req.NewName, extractActor(c))
	if err != nil && result == nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithBulkResult(c, result)
}
