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
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/transfer"
)

// RelocateObjectRequest is the body of a single-object move or copy
type RelocateObjectRequest struct {
	DestinationBucket string `json:"destinationBucket" binding:"required" example:"archive"`
	DestinationPath   string `json:"destinationPath,omitempty" example:"2025/reports/"`
} // @name RelocateObjectRequest

// RenameObjectRequest is the body of a same-bucket object rename
type RenameObjectRequest struct {
	NewKey string `json:"newKey" binding:"required" example:"reports/2025-q3.pdf"`
} // @name RenameObjectRequest

// ListObjects handles paginated object listing within a bucket
// @Summary List objects
// @Description Lists objects in a bucket with optional prefix filtering and cursor pagination
// @Tags objects
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param prefix query string false "Key prefix filter"
// @Param cursor query string false "Continuation cursor from a previous page"
// @Param limit query int false "Page size (max 1000)"
// @Success 200 {object} ListObjectsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /buckets/{bucket}/objects [get]
func (h *Handler) ListObjects(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}

	prefix := c.Query("prefix")
	if err := common.ValidatePrefix(prefix); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}

	limit := DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > MaxListLimit {
			parsed = MaxListLimit
		}
		limit = parsed
	}

	result, err := h.store.List(c.Request.Context(), bucket, &common.ListOptions{
		Prefix:       prefix,
		MaxResults:   limit,
		ContinueFrom: c.Query("cursor"),
	})
	if err != nil {
		respondWithMappedError(c, err)
		return
	}

	RespondWithListObjects(c, result)
}

// PutObject handles object upload
// @Summary Upload an object
// @Description Uploads an object, streaming the request body to the backend
// @Tags objects
// @Accept application/octet-stream
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /buckets/{bucket}/objects/{key} [put]
func (h *Handler) PutObject(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}
	key, ok := wildcardKey(c, "key")
	if !ok {
		return
	}

	var reader io.Reader = c.Request.Body
	contentType := c.GetHeader("Content-Type")

	// Multipart uploads carry the payload in a form file field.
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			RespondWithError(c, http.StatusBadRequest, "failed to read file from multipart form: "+err.Error())
			return
		}
		defer file.Close()
		reader = file
		contentType = header.Header.Get("Content-Type")
	}
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	actor := extractActor(c)
	if err := h.store.Put(c.Request.Context(), bucket, key, reader, contentType); err != nil {
		h.auditor.Failure(c.Request.Context(), "file_upload", bucket, key, actor, err)
		respondWithMappedError(c, err)
		return
	}

	h.auditor.Success(c.Request.Context(), "file_upload", bucket, key, actor)
	RespondWithSuccess(c, http.StatusCreated, "object stored", gin.H{"bucket": bucket, "key": key})
}

// GetObject handles object download
// @Summary Download an object
// @Description Streams the object body with its stored content type
// @Tags objects
// @Produce application/octet-stream
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /buckets/{bucket}/objects/{key} [get]
func (h *Handler) GetObject(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}
	key, ok := wildcardKey(c, "key")
	if !ok {
		return
	}

	h.serveObject(c, bucket, key)
}

func (h *Handler) serveObject(c *gin.Context, bucket, key string) {
	body, ref, err := h.store.Get(c.Request.Context(), bucket, key)
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	defer body.Close()

	contentType := ref.ContentType
	if contentType == "" {
		contentType = common.DefaultContentType
	}

	c.Header("Content-Disposition", `attachment; filename="`+path.Base(key)+`"`)
	if ref.ETag != "" {
		c.Header("ETag", ref.ETag)
	}
	c.DataFromReader(http.StatusOK, ref.Size, contentType, body, nil)
}

// DeleteObject handles single object deletion
// @Summary Delete an object
// @Description Deletes one object from a bucket
// @Tags objects
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /buckets/{bucket}/objects/{key} [delete]
func (h *Handler) DeleteObject(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}
	key, ok := wildcardKey(c, "key")
	if !ok {
		return
	}

	actor := extractActor(c)
	if err := h.store.Delete(c.Request.Context(), bucket, key); err != nil {
		h.auditor.Failure(c.Request.Context(), "file_delete", bucket, key, actor, err)
		respondWithMappedError(c, err)
		return
	}

	h.auditor.Success(c.Request.Context(), "file_delete", bucket, key, actor)
	RespondWithSuccess(c, http.StatusOK, "object deleted", nil)
}

// MoveObject handles a single-object move to another bucket or path
// @Summary Move an object
// @Description Copies the object to the destination and deletes the source
// @Tags objects
// @Accept json
// @Produce json
// @Param bucket path string true "Source bucket"
// @Param key path string true "Source key"
// @Param request body RelocateObjectRequest true "Destination"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /buckets/{bucket}/move/{key} [post]
func (h *Handler) MoveObject(c *gin.Context) {
	h.relocateObject(c, true)
}

// CopyObject handles a single-object copy to another bucket or path
// @Summary Copy an object
// @Description Copies the object to the destination, leaving the source in place
// @Tags objects
// @Accept json
// @Produce json
// @Param bucket path string true "Source bucket"
// @Param key path string true "Source key"
// @Param request body RelocateObjectRequest true "Destination"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /buckets/{bucket}/copy/{key} [post]
func (h *Handler) CopyObject(c *gin.Context) {
	h.relocateObject(c, false)
}

func (h *Handler) relocateObject(c *gin.Context, move bool) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}
	key, ok := wildcardKey(c, "key")
	if !ok {
		return
	}

	var req RelocateObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := common.ValidateBucketName(req.DestinationBucket); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}

	// A move into a folder keeps the basename; the destination folder
	// need not exist in a flat namespace.
	destKey := key
	if req.DestinationPath != "" {
		destKey = strings.TrimSuffix(req.DestinationPath, "/") + "/" + path.Base(key)
	}

	result, err := h.coordinator.RelocateObject(c.Request.Context(),
		transfer.Ref{Bucket: bucket, Key: key},
		transfer.Ref{Bucket: req.DestinationBucket, Key: destKey},
		move, extractActor(c))
	if err != nil {
		respondWithMappedError(c, err)
		return
	}

	message := "object copied"
	if move {
		message = "object moved"
	}
	RespondWithSuccess(c, http.StatusOK, message, gin.H{
		"bucket":          req.DestinationBucket,
		"key":             destKey,
		"bytes":           result.BytesCopied,
		"source_retained": result.SourceRetained,
	})
}

// BulkDeleteRequest selects keys for a bulk delete
type BulkDeleteRequest struct {
	Keys []string `json:"keys" binding:"required,min=1"`
} // @name BulkDeleteRequest

// BulkDeleteObjects deletes an explicit key selection
// @Summary Bulk delete objects
// @Description Deletes the listed keys from the bucket, tallying per-key failures
// @Tags objects
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param request body BulkDeleteRequest true "Keys to delete"
// @Success 200 {object} BulkOperationResponse
// @Failure 400 {object} ErrorResponse
// @Router /buckets/{bucket}/bulk-delete [post]
func (h *Handler) BulkDeleteObjects(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	for _, key := range req.Keys {
		if err := common.ValidateKey(key); err != nil {
			RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
			return
		}
	}

	result, err := h.coordinator.BulkDeleteObjects(c.Request.Context(), bucket, req.Keys, extractActor(c))
	if err != nil && result == nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithBulkResult(c, result)
}

// RenameObject handles a same-bucket object rename
// @Summary Rename an object
// @Description Copies the object to the new key and deletes the old one
// @Tags objects
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param key path string true "Current key"
// @Param request body RenameObjectRequest true "New key"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /buckets/{bucket}/rename/{key} [patch]
func (h *Handler) RenameObject(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}
	key, ok := wildcardKey(c, "key")
	if !ok {
		return
	}

	var req RenameObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.coordinator.RelocateObject(c.Request.Context(),
		transfer.Ref{Bucket: bucket, Key: key},
		transfer.Ref{Bucket: bucket, Key: req.NewKey},
		true, extractActor(c))
	if err != nil {
		respondWithMappedError(c, err)
		return
	}

	RespondWithSuccess(c, http.StatusOK, "object renamed", gin.H{
		"bucket":          bucket,
		"key":             req.NewKey,
		"bytes":           result.BytesCopied,
		"source_retained": result.SourceRetained,
	})
}
