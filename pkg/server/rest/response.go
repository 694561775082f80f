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
	"github.com/jeremyhahn/go-bucketadmin/pkg/transfer"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error" example:"error message"`
	Code    int    `json:"code" example:"400"`
	Message string `json:"message,omitempty" example:"detailed error description"`
} // @name ErrorResponse

// SuccessResponse represents a standard success response
type SuccessResponse struct {
	Message string `json:"message" example:"operation completed successfully"`
	Data    any    `json:"data,omitempty"`
} // @name SuccessResponse

// ObjectResponse represents an object metadata response
type ObjectResponse struct {
	Key         string `json:"key" example:"path/to/object.txt"`
	Size        int64  `json:"size" example:"1024"`
	Modified    string `json:"modified,omitempty" example:"2025-11-05T10:00:00Z"`
	ETag        string `json:"etag,omitempty" example:"d41d8cd98f00b204e9800998ecf8427e"`
	ContentType string `json:"content_type,omitempty" example:"text/plain"`
} // @name ObjectResponse

// ListObjectsResponse represents a paginated list of objects
type ListObjectsResponse struct {
	Objects   []ObjectResponse `json:"objects"`
	NextToken string           `json:"next_token,omitempty" example:"token123"`
	Truncated bool             `json:"truncated" example:"false"`
} // @name ListObjectsResponse

// BucketResponse represents a bucket in a listing
type BucketResponse struct {
	Name      string `json:"name" example:"media-assets"`
	CreatedAt string `json:"created_at,omitempty" example:"2025-11-05T10:00:00Z"`
} // @name BucketResponse

// BulkOperationResponse summarizes a finished bulk operation
type BulkOperationResponse struct {
	JobID          string `json:"job_id" example:"folder_move-1757000000-a1b2c3d4"`
	Status         string `json:"status" example:"completed"`
	Attempted      int64  `json:"attempted" example:"42"`
	Succeeded      int64  `json:"succeeded" example:"40"`
	Failed         int64  `json:"failed" example:"2"`
	PartialSuccess bool   `json:"partial_success,omitempty"`
	DurationMS     int64  `json:"duration_ms" example:"1234"`
} // @name BulkOperationResponse

// FolderCountResponse is the confirmation payload of a non-forced folder
// delete
type FolderCountResponse struct {
	Bucket    string `json:"bucket" example:"media-assets"`
	Prefix    string `json:"prefix" example:"archive/2024/"`
	Count     int    `json:"count" example:"17"`
	Deleted   bool   `json:"deleted" example:"false"`
	ForceHint string `json:"force_hint,omitempty" example:"re-issue with ?force=true to delete"`
} // @name FolderCountResponse

// SignedURLResponse carries an issued download link
type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in_seconds" example:"3600"`
} // @name SignedURLResponse

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status" example:"healthy"`
	Version string `json:"version,omitempty" example:"0.1.0-beta"`
	Backend string `json:"backend,omitempty" example:"s3"`
} // @name HealthResponse

// RespondWithError sends a standard error response
func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}

// RespondWithSuccess sends a standard success response
func RespondWithSuccess(c *gin.Context, code int, message string, data any) {
	response := SuccessResponse{
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(code, response)
}

// RespondWithListObjects sends a paginated object listing
func RespondWithListObjects(c *gin.Context, result *common.ListResult) {
	response := ListObjectsResponse{
		Objects:   make([]ObjectResponse, 0, len(result.Objects)),
		NextToken: result.NextToken,
		Truncated: result.Truncated,
	}

	for _, obj := range result.Objects {
		objResp := ObjectResponse{
			Key:         obj.Key,
			Size:        obj.Size,
			ETag:        obj.ETag,
			ContentType: obj.ContentType,
		}
		if !obj.LastModified.IsZero() {
			objResp.Modified = obj.LastModified.Format(time.RFC3339)
		}
		response.Objects = append(response.Objects, objResp)
	}

	c.JSON(http.StatusOK, response)
}

// RespondWithBulkResult sends a bulk operation summary. Completed runs get
// 200; failed and cancelled runs surface as 500 and 499 with the summary
// still attached so callers see the partial tallies.
func RespondWithBulkResult(c *gin.Context, result *transfer.BulkResult) {
	if result == nil {
		RespondWithError(c, http.StatusInternalServerError, "bulk result is nil")
		return
	}

	response := BulkOperationResponse{
		JobID:          result.JobID,
		Status:         string(result.Status),
		Attempted:      result.Attempted,
		Succeeded:      result.Succeeded,
		Failed:         result.Failed,
		PartialSuccess: result.PartialSuccess,
		DurationMS:     result.Duration.Milliseconds(),
	}

	code := http.StatusOK
	switch result.Status {
	case "failed":
		code = http.StatusInternalServerError
	case "cancelled":
		// Client closed request; 499 matches the convention proxies use.
		code = 499
	}

	c.JSON(code, response)
}
