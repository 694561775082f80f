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
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/audit"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/filetypes"
	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
	"github.com/jeremyhahn/go-bucketadmin/pkg/signer"
	"github.com/jeremyhahn/go-bucketadmin/pkg/transfer"
	"github.com/jeremyhahn/go-bucketadmin/pkg/version"
)

const (
	// DefaultListLimit is the default number of objects to return in a list operation
	DefaultListLimit = 100

	// MaxListLimit is the maximum number of objects to return in a list operation
	MaxListLimit = 1000
)

// Handler encapsulates the storage backend and control plane services for
// handling requests
type Handler struct {
	store       common.ObjectStore
	coordinator *transfer.Coordinator
	tracker     *jobs.Tracker
	auditor     *audit.Recorder
	signer      *signer.Signer
	catalog     *filetypes.Catalog
	logger      adapters.Logger
	backendName string
}

// HandlerConfig wires a Handler's collaborators.
type HandlerConfig struct {
	Store       common.ObjectStore
	Coordinator *transfer.Coordinator
	Tracker     *jobs.Tracker
	Auditor     *audit.Recorder
	Signer      *signer.Signer
	Catalog     *filetypes.Catalog
	Logger      adapters.Logger
	BackendName string
}

// NewHandler creates a new Handler instance
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = adapters.NewDefaultLogger()
	}
	return &Handler{
		store:       cfg.Store,
		coordinator: cfg.Coordinator,
		tracker:     cfg.Tracker,
		auditor:     cfg.Auditor,
		signer:      cfg.Signer,
		catalog:     cfg.Catalog,
		logger:      logger,
		backendName: cfg.BackendName,
	}
}

// wildcardKey extracts and validates an object key from a gin catch-all
// parameter, which arrives with a leading slash.
func wildcardKey(c *gin.Context, param string) (string, bool) {
	key := strings.TrimPrefix(c.Param(param), "/")
	if key == "" {
		RespondWithError(c, http.StatusBadRequest, "key parameter is required")
		return "", false
	}
	if err := common.ValidateKey(key); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return "", false
	}
	return key, true
}

// bucketParam extracts and validates the bucket path parameter.
func bucketParam(c *gin.Context) (string, bool) {
	bucket := c.Param("bucket")
	if err := common.ValidateBucketName(bucket); err != nil {
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
		return "", false
	}
	return bucket, true
}

// respondWithMappedError translates domain errors into HTTP status codes.
func respondWithMappedError(c *gin.Context, err error) {
	var vErr *common.ValidationError

	switch {
	case errors.Is(err, common.ErrObjectNotFound),
		errors.Is(err, common.ErrSourceNotFound),
		errors.Is(err, common.ErrBucketNotFound),
		errors.Is(err, jobs.ErrJobNotFound):
		RespondWithError(c, http.StatusNotFound, common.SanitizeErrorMessage(err))
	case errors.Is(err, common.ErrDestinationExists),
		errors.Is(err, common.ErrBucketExists),
		errors.Is(err, common.ErrBucketNotEmpty):
		RespondWithError(c, http.StatusConflict, common.SanitizeErrorMessage(err))
	case errors.Is(err, common.ErrSameSourceAndDest),
		errors.Is(err, common.ErrDestinationInsideSource),
		errors.As(err, &vErr):
		RespondWithError(c, http.StatusBadRequest, common.SanitizeErrorMessage(err))
	case errors.Is(err, signer.ErrInvalidSignature),
		errors.Is(err, signer.ErrExpired),
		errors.Is(err, signer.ErrMissingParam):
		RespondWithError(c, http.StatusForbidden, common.SanitizeErrorMessage(err))
	default:
		RespondWithError(c, http.StatusInternalServerError, common.SanitizeErrorMessage(err))
	}
}

// HealthCheck handles health check requests
// @Summary Health check
// @Description Returns the health status of the service
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Backend: h.backendName,
	})
}

// GetFileTypes returns the supported file type catalog
// @Summary List supported file types
// @Description Returns the supported file type catalog (TTL cached)
// @Tags filetypes
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 500 {object} ErrorResponse
// @Router /filetypes [get]
func (h *Handler) GetFileTypes(c *gin.Context) {
	types, err := h.catalog.Get(c.Request.Context())
	if err != nil {
		respondWithMappedError(c, err)
		return
	}
	RespondWithSuccess(c, http.StatusOK, "supported file types", types)
}
