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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-bucketadmin/pkg/adapters"
	"github.com/jeremyhahn/go-bucketadmin/pkg/cli"
	"github.com/jeremyhahn/go-bucketadmin/pkg/factory"
	restserver "github.com/jeremyhahn/go-bucketadmin/pkg/server/rest"
	"github.com/jeremyhahn/go-bucketadmin/pkg/version"
)

var (
	cfgFile      string
	viperConfig  *viper.Viper
	globalConfig *cli.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bucketadmin",
	Short: "Administrative control plane for flat-namespace object stores",
	Long: `bucketadmin manages buckets, folders, and objects on S3-compatible
object stores (AWS S3, Cloudflare R2, MinIO), synthesizing the bulk
operations the stores lack: force bucket delete, bucket rename, folder
move/copy/delete, and batch export. Every bulk pass is tracked as a job
and every discrete action lands in the audit log.

Configuration can be provided via:
  - Command-line flags (highest priority)
  - Environment variables (BUCKETADMIN_*)
  - Configuration file (~/.bucketadmin.yaml or ./.bucketadmin.yaml)
  - Default values (lowest priority)`,
	Version: version.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		viperConfig, err = cli.InitConfig(cfgFile)
		if err != nil {
			return err
		}
		if err := viperConfig.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
		globalConfig = cli.GetConfig(viperConfig)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start the bucketadmin REST API server. The server exposes bucket,
object, folder, job, and audit operations under /api/v1 and shuts down
gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.NewApp(globalConfig)
		if err != nil {
			return err
		}
		defer app.Close()

		// Anything left running or queued from a previous process is dead.
		if swept, err := app.Tracker.MarkStale(cmd.Context(), globalConfig.StaleJobCutoff); err == nil && swept > 0 {
			app.Logger.Info(cmd.Context(), "Marked stale jobs from previous run",
				adapters.Field{Key: "count", Value: swept})
		}

		handler := restserver.NewHandler(restserver.HandlerConfig{
			Store:       app.Store,
			Coordinator: app.Coordinator,
			Tracker:     app.Tracker,
			Auditor:     app.Auditor,
			Signer:      app.Signer,
			Catalog:     app.Catalog,
			Logger:      app.Logger,
			BackendName: globalConfig.Backend,
		})

		config := restserver.DefaultServerConfig()
		config.Host = globalConfig.Host
		config.Port = globalConfig.Port
		config.Logger = app.Logger
		config.Authenticator = app.Authenticator()

		server, err := restserver.NewServer(handler, config)
		if err != nil {
			return fmt.Errorf("failed to create REST server: %w", err)
		}

		errChan := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil {
				errChan <- fmt.Errorf("REST server error: %w", err)
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errChan:
			return err
		case sig := <-sigChan:
			app.Logger.Info(cmd.Context(), "Received signal, shutting down",
				adapters.Field{Key: "signal", Value: sig.String()})
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and maintain transfer jobs",
}

var jobsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark stale running jobs as failed",
	Long: `Mark jobs still queued or running past the stale-job-cutoff as failed.
Run this after a crash or host timeout to clean up orphaned job rows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.NewApp(globalConfig)
		if err != nil {
			return err
		}
		defer app.Close()

		swept, err := app.Tracker.MarkStale(cmd.Context(), globalConfig.StaleJobCutoff)
		if err != nil {
			return err
		}
		fmt.Printf("Marked %d stale job(s) as failed\n", swept)
		return nil
	},
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List registered storage backends",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(strings.Join(factory.Backends(), "\n"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.bucketadmin.yaml)")
	rootCmd.PersistentFlags().String("backend", "memory", "storage backend (memory, s3, r2, minio)")
	rootCmd.PersistentFlags().String("backend-path", "", "path setting for the backend")
	rootCmd.PersistentFlags().String("backend-region", "", "region for S3-compatible backends")
	rootCmd.PersistentFlags().String("backend-key", "", "access key for S3-compatible backends")
	rootCmd.PersistentFlags().String("backend-secret", "", "secret key for S3-compatible backends")
	rootCmd.PersistentFlags().String("backend-url", "", "endpoint URL for S3-compatible backends")
	rootCmd.PersistentFlags().String("db-path", "./bucketadmin.db", "metadata database path")
	rootCmd.PersistentFlags().String("signing-secret", "", "HMAC secret for signed download URLs")
	rootCmd.PersistentFlags().Duration("signing-ttl", time.Hour, "signed URL validity window")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Duration("stale-job-cutoff", time.Hour, "age past which running jobs are considered stale")

	serveCmd.Flags().String("host", "0.0.0.0", "host to bind")
	serveCmd.Flags().Int("port", 8080, "port to listen on")
	serveCmd.Flags().String("auth-header", "", "trusted header carrying the authenticated identity")
	serveCmd.Flags().Int("page-size", 100, "listing page size for bulk operations")
	serveCmd.Flags().Duration("page-delay", 300*time.Millisecond, "delay between listing pages")

	jobsCmd.AddCommand(jobsSweepCmd)
	rootCmd.AddCommand(serveCmd, jobsCmd, backendsCmd)
}
