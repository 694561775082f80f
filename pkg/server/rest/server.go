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

// Package rest exposes the bucket administration control plane over HTTP.
package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/server/middleware"
)

// Server represents the REST API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	handler    *Handler
	config     *ServerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	// Host is the hostname to bind to (default: "0.0.0.0")
	Host string

	// Port is the port to listen on (default: 8080)
	Port int

	// EnableCORS enables CORS middleware
	EnableCORS bool

	// EnableLogging enables request logging middleware
	EnableLogging bool

	// EnableRateLimit enables tiered rate limiting middleware
	EnableRateLimit bool

	// RateLimitConfig is the rate limiting configuration
	RateLimitConfig *middleware.RateLimitConfig

	// EnableRequestID enables request ID middleware
	EnableRequestID bool

	// MaxRequestSize is the maximum request body size in bytes (default: 100MB)
	MaxRequestSize int64

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// Mode sets the Gin mode: "debug", "release", or "test" (default: "release")
	Mode string

	// Logger is the pluggable logger adapter (default: DefaultLogger)
	Logger adapters.Logger

	// Authenticator is the pluggable authentication adapter (default: NoOpAuthenticator)
	Authenticator adapters.Authenticator
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		EnableCORS:      true,
		EnableLogging:   true,
		EnableRateLimit: true,
		RateLimitConfig: middleware.DefaultRateLimitConfig(),
		EnableRequestID: true,
		MaxRequestSize:  100 * 1024 * 1024,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		Mode:            gin.ReleaseMode,
		Logger:          adapters.NewDefaultLogger(),
		Authenticator:   adapters.NewNoOpAuthenticator(),
	}
}

// NewServer creates a new REST API server around an assembled Handler.
func NewServer(handler *Handler, config *ServerConfig) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Logger == nil {
		config.Logger = adapters.NewDefaultLogger()
	}
	if config.Authenticator == nil {
		config.Authenticator = adapters.NewNoOpAuthenticator()
	}
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}

	gin.SetMode(config.Mode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ErrorHandlingMiddleware())

	// Middleware order: request ID → rate limit → CORS → logging → size limit,
	// with authentication applied per route group.
	if config.EnableRequestID {
		router.Use(middleware.RequestIDMiddleware())
	}
	if config.EnableRateLimit {
		router.Use(middleware.RateLimitMiddleware(config.RateLimitConfig, config.Logger))
	}
	if config.EnableCORS {
		router.Use(CORSMiddleware())
	}
	if config.EnableLogging {
		router.Use(LoggingMiddleware(config.Logger))
	}
	if config.MaxRequestSize > 0 {
		router.Use(RequestSizeLimitMiddleware(config.MaxRequestSize))
	}

	public := router.Group("")
	authed := router.Group("")
	authed.Use(AuthenticationMiddleware(config.Authenticator, config.Logger))

	SetupRoutes(public, authed, handler)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		router:     router,
		httpServer: httpServer,
		handler:    handler,
		config:     config,
	}, nil
}

// Start starts the REST API server
func (s *Server) Start() error {
	s.config.Logger.Info(context.TODO(), "Starting REST API server",
		adapters.Field{Key: "address", Value: s.httpServer.Addr},
	)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info(ctx, "Shutting down REST API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the underlying Gin router (useful for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Handler returns the HTTP handler
func (s *Server) Handler() *Handler {
	return s.handler
}

// Address returns the server address
func (s *Server) Address() string {
	return s.httpServer.Addr
}
