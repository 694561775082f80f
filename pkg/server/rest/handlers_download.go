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
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// DownloadPathPrefix is where signed downloads are served.
const DownloadPathPrefix = "/api/v1/download/"

// SignObjectURL issues a time-boxed signed download link
// @Summary Issue a signed URL
// @Description Returns a signed download link for one object, valid for the configured window
// @Tags objects
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param key path string true "Object key"
// @Success 200 {object} SignedURLResponse
// @Failure 404 {object} ErrorResponse
// @Router /buckets/{bucket}/signed-url/{key} [get]
func (h *Handler) SignObjectURL(c *gin.Context) {
	bucket, ok := bucketParam(c)
	if !ok {
		return
	}
	key, ok := wildcardKey(c, "key")
	if !ok {
		return
	}

	// Signing a link to a missing object would hand out a guaranteed 404.
	exists, err := h.store.Exists(c.Request.Context(), bucket, key)
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	if !exists {
		RespondWithError(c, http.StatusNotFound, "object not found")
		return
	}

	signPath := DownloadPathPrefix + key
	query := url.Values{}
	query.Set("bucket", bucket)
	signed := h.signer.Sign(signPath, query)

	actor := extractActor(c)
	h.auditor.Success(c.Request.Context(), "signed_url_issue", bucket, key, actor)

	c.JSON(http.StatusOK, SignedURLResponse{
		URL:       signPath + "?" + signed.Encode(),
		ExpiresIn: int64(h.signer.TTL().Seconds()),
	})
}

// DownloadSigned verifies a signed link and serves the object. This route
// skips the authentication middleware; the signature is the credential.
// @Summary Download via signed URL
// @Description Verifies the signature and expiry, then streams the object
// @Tags objects
// @Produce application/octet-stream
// @Param key path string true "Object key"
// @Param bucket query string true "Bucket name"
// @Param expires query string true "Issue timestamp"
// @Param sig query string true "Signature"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /download/{key} [get]
func (h *Handler) DownloadSigned(c *gin.Context) {
	key, ok := wildcardKey(c, "key")
	if !ok {
		return
	}
	bucket := c.Query("bucket")
	if err := common.ValidateBucketName(bucket); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return
	}

	if err := h.signer.Verify(c.Request.URL.EscapedPath(), c.Request.URL.RawQuery); err != nil {
		h.auditor.Failure(c.Request.Context(), "signed_url_download", bucket, key, "signed-link", err)
		respondWithMappedError(c, err)
		return
	}

	h.auditor.Success(c.Request.Context(), "signed_url_download", bucket, key, "signed-link")
	h.serveObject(c, bucket, key)
}
