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
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// CreateFolderRequest is the body of a folder create
type CreateFolderRequest struct {
	Path string `json:"path" binding:"required" example:"reports/2025/"`
} // @name CreateFolderRequest

// RenameFolderRequest is the body of a same-bucket folder rename
type RenameFolderRequest struct {
	OldPath string `json:"oldPath" binding:"required" example:"reports/2024/"`
	NewPath string `json:"newPath" binding:"required" example:"archive/2024/"`
} // @name RenameFolderRequest

// RelocateFolderRequest is the body of a folder move or copy
type RelocateFolderRequest struct {
	SourcePath        string `json:"sourcePath" binding:"required" example:"reports/2024/"`
	DestinationBucket string `json:"destinationBucket" binding:"required" example:"archive"`
	DestinationPath   string `json:"destinationPath" binding:"required" example:"2024/"`
} // @name RelocateFolderRequest

// CreateFolder materializes an empty folder via its marker object
// @Summary Create a folder
// @Description Writes the folder's zero-byte marker object so the prefix lists before content exists
// @Tags folders
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param request body CreateFolderRequest true "Folder path"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /buckets/{bucket}/folders [post]
func (h *Handler) CreateFolder(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	marker, err := h.coordinator.CreateFolder(c.Request.Context(), bucket, req.Path, extractActor(c))
	if err != nil {
		respondWithMappedError(c, err)
		return
	}

	RespondWithSuccess(c, http.StatusCreated, "folder created", gin.H{"bucket": bucket, "marker": marker})
}

// RenameFolder handles a same-bucket folder rename
// @Summary Rename a folder
// @Description Moves every object under oldPath to newPath within the bucket
// @Tags folders
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param request body RenameFolderRequest true "Old and new paths"
// @Success 200 {object} BulkOperationResponse
// @Failure 400 {object} ErrorResponse
// @Router /buckets/{bucket}/folders/rename [post]
func (h *Handler) RenameFolder(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}

	var req RenameFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateFolderPaths(req.OldPath, req.NewPath); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}

	result, err := h.coordinator.RelocateFolder(c.Request.Context(),
		bucket, req.OldPath, bucket, req.NewPath, true, extractActor(c))
	if err != nil && result == nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithBulkResult(c, result)
}

// MoveFolder handles a folder move, same or cross bucket
// @Summary Move a folder
// @Description Moves every object under sourcePath into the destination, deleting the sources
// @Tags folders
// @Accept json
// @Produce json
// @Param bucket path string true "Source bucket"
// @Param request body RelocateFolderRequest true "Source and destination"
// @Success 200 {object} BulkOperationResponse
// @Failure 400 {object} ErrorResponse
// @Router /buckets/{bucket}/folders/move [post]
func (h *Handler) MoveFolder(c *gin.Context) {
	h.relocateFolder(c, true)
}

// CopyFolder handles a folder copy, same or cross bucket
// @Summary Copy a folder
// @Description Copies every object under sourcePath into the destination
// @Tags folders
// @Accept json
// @Produce json
// @Param bucket path string true "Source bucket"
// @Param request body RelocateFolderRequest true "Source and destination"
// @Success 200 {object} BulkOperationResponse
// @Failure 400 {object} ErrorResponse
// @Router /buckets/{bucket}/folders/copy [post]
func (h *Handler) CopyFolder(c *gin.Context) {
	h.relocateFolder(c, false)
}

func (h *Handler) relocateFolder(c *gin.Context, move bool) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}

	var req RelocateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := common.ValidateBucketName(req.DestinationBucket); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}
	if err := validateFolderPaths(req.SourcePath, req.DestinationPath); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}

	result, err := h.coordinator.RelocateFolder(c.Request.Context(),
		bucket, req.SourcePath, req.DestinationBucket, req.DestinationPath,
		move, extractActor(c))
	if err != nil && result == nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithBulkResult(c, result)
}

// DeleteFolder handles folder deletion with confirm-then-force semantics
// @Summary Delete a folder
// @Description Without force, returns the object count under the prefix and deletes nothing. With force=true, deletes every object under it.
// @Tags folders
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param path path string true "Folder prefix"
// @Param force query bool false "Actually delete"
// @Success 200 {object} FolderCountResponse
// @Failure 400 {object} ErrorResponse
// @Router /buckets/{bucket}/folders/{path} [delete]
func (h *Handler) DeleteFolder(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}

	prefix := strings.TrimPrefix(c.Param("path"), "/")
	if prefix == "" {
		RespondWithError(c, http.StatusBadRequest, "folder path is required")
		return
	}
	if err := common.ValidatePrefix(prefix); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}

	if c.Query("force") != "true" {
		count, err := h.coordinator.CountFolder(c.Request.Context(), bucket, prefix)
		if err != nil {
			respondWithMappedError(c, err)
			return
		}
		c.JSON(http.StatusOK, FolderCountResponse{
			Bucket:    bucket,
			Prefix:    prefix,
			Count:     count,
			Deleted:   false,
			ForceHint: "re-issue with ?force=true to delete",
		})
		return
	}

	result, err := h.coordinator.DeleteFolder(c.Request.Context(), bucket, prefix, extractActor(c))
	if err != nil && result == nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithBulkResult(c, result)
}

// validateFolderPaths checks both sides of a folder relocation.
func validateFolderPaths(src, dst string) error {
	if err := common.ValidatePrefix(src); err != nil {
		return err
	}
	return common.ValidatePrefix(dst)
}
