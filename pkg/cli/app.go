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

package cli

import (
	"database/sql"
	"fmt"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/audit"
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/factory"
	"github.com/jeremyhahn/go-bucketadmin/pkg/filetypes"
	"github.com/jeremyhahn/go-bucketadmin/pkg/jobs"
	"github.com/jeremyhahn/go-bucketadmin/pkg/metadb"
	"github.com/jeremyhahn/go-bucketadmin/pkg/signer"
	"github.com/jeremyhahn/go-bucketadmin/pkg/transfer"
)

// App holds the assembled control plane services shared by commands.
type App struct {
	Config      *Config
	Logger      adapters.Logger
	Store       common.ObjectStore
	DB          *sql.DB
	Tracker     *jobs.Tracker
	Auditor     *audit.Recorder
	Coordinator *transfer.Coordinator
	Signer      *signer.Signer
	Catalog     *filetypes.Catalog
}

// NewApp builds the control plane from configuration: backend store via
// the factory, metadata database, job tracker, audit recorder, transfer
// coordinator, URL signer, and file type catalog.
func NewApp(cfg *Config) (*App, error) {
	var logger adapters.Logger
	if cfg.LogFormat == "json" {
		logger = adapters.NewJSONLogger()
	} else {
		logger = adapters.NewDefaultLogger()
	}
	logger.SetLevel(adapters.ParseLogLevel(cfg.LogLevel))

	store, err := factory.NewStore(cfg.Backend, cfg.GetStorageSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to configure %s backend: %w", cfg.Backend, err)
	}

	db, err := metadb.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata database: %w", err)
	}

	tracker := jobs.NewTracker(db, logger)
	auditor := audit.NewRecorder(db, logger)

	coordinator := transfer.NewCoordinator(store, tracker, auditor, transfer.Config{
		PageSize: cfg.PageSize,
		Pacer:    transfer.NewFixedPacer(cfg.PageDelay),
		Logger:   logger,
	})

	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("signing-secret is required")
	}

	return &App{
		Config:      cfg,
		Logger:      logger,
		Store:       store,
		DB:          db,
		Tracker:     tracker,
		Auditor:     auditor,
		Coordinator: coordinator,
		Signer:      signer.New([]byte(cfg.SigningSecret), cfg.SigningTTL),
		Catalog:     filetypes.New(nil, 0),
	}, nil
}

// Authenticator returns the configured authenticator: a trusted-header
// authenticator when auth-header is set, otherwise no-op.
func (a *App) Authenticator() adapters.Authenticator {
	if a.Config.AuthHeader != "" {
		return adapters.NewTrustedHeaderAuthenticator(a.Config.AuthHeader)
	}
	return adapters.NewNoOpAuthenticator()
}

// Close releases the App's resources.
func (a *App) Close() error {
	a.Catalog.Stop()
	return a.DB.Close()
}
