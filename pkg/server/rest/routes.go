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
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all routes for the REST API. The signed download
// route lives on public because its credential is the URL signature, not
// the session; everything else goes through the authenticated group.
func SetupRoutes(public, authed *gin.RouterGroup, handler *Handler) {
	// Health check endpoint (no auth required)
	public.GET("/health", handler.HealthCheck)

	// Swagger documentation
	public.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Signed downloads (signature-gated, no session auth)
	public.GET("/api/v1/download/*key", handler.DownloadSigned)

	// API v1 group
	v1 := authed.Group("/api/v1")
	{
		v1.GET("/filetypes", handler.GetFileTypes)
		v1.POST("/export", handler.ExportObjects)

		v1.GET("/jobs", handler.ListJobs)
		v1.GET("/jobs/:id", handler.GetJob)
		v1.GET("/jobs/:id/events", handler.GetJobEvents)

		v1.GET("/audit", handler.ListAuditEntries)
		v1.GET("/audit/summary", handler.GetAuditSummary)

		buckets := v1.Group("/buckets")
		{
			buckets.GET("", handler.ListBuckets)
			buckets.POST("", handler.CreateBucket)
			buckets.DELETE("/:bucket", handler.DeleteBucket)
			buckets.PATCH("/:bucket", handler.RenameBucket)

			// Object CRUD (wildcard routes support keys with slashes)
			buckets.GET("/:bucket/objects", handler.ListObjects)
			buckets.PUT("/:bucket/objects/*key", handler.PutObject)
			buckets.GET("/:bucket/objects/*key", handler.GetObject)
			buckets.DELETE("/:bucket/objects/*key", handler.DeleteObject)

			// Relocations take a verb prefix because a catch-all segment
			// must be last in a gin route.
			buckets.POST("/:bucket/move/*key", handler.MoveObject)
			buckets.POST("/:bucket/copy/*key", handler.CopyObject)
			buckets.PATCH("/:bucket/rename/*key", handler.RenameObject)
			buckets.GET("/:bucket/signed-url/*key", handler.SignObjectURL)
			buckets.POST("/:bucket/bulk-delete", handler.BulkDeleteObjects)

			// Folder operations
			buckets.POST("/:bucket/folders", handler.CreateFolder)
			buckets.POST("/:bucket/folders/rename", handler.RenameFolder)
			buckets.POST("/:bucket/folders/move", handler.MoveFolder)
			buckets.POST("/:bucket/folders/copy", handler.CopyFolder)
			buckets.DELETE("/:bucket/folders/*path", handler.DeleteFolder)
		}
	}
}
