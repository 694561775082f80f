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

// Package cli loads configuration and assembles the control plane for
// the bucketadmin commands.
package cli

import (
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the CLI configuration settings.
type Config struct {
	Backend       string
	BackendPath   string
	BackendRegion string
	BackendKey    string
	BackendSecret string
	BackendURL    string

	Host string
	Port int

	DatabasePath  string
	SigningSecret string
	SigningTTL    time.Duration

	PageSize  int
	PageDelay time.Duration

	AuthHeader string

	StaleJobCutoff time.Duration

	LogFormat string
	LogLevel  string
}

// InitConfig initializes the configuration using Viper.
// Configuration priority: flags > env vars > config file > defaults.
func InitConfig(cfgFile string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("backend", "memory")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("db-path", "./bucketadmin.db")
	v.SetDefault("signing-ttl", "1h")
	v.SetDefault("page-size", 100)
	v.SetDefault("page-delay", "300ms")
	v.SetDefault("stale-job-cutoff", "1h")
	v.SetDefault("log-format", "text")
	v.SetDefault("log-level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".bucketadmin")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("BUCKETADMIN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return v, nil
}

// GetConfig extracts the configuration from Viper into a Config struct.
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		Backend:        v.GetString("backend"),
		BackendPath:    v.GetString("backend-path"),
		BackendRegion:  v.GetString("backend-region"),
		BackendKey:     v.GetString("backend-key"),
		BackendSecret:  v.GetString("backend-secret"),
		BackendURL:     v.GetString("backend-url"),
		Host:           v.GetString("host"),
		Port:           v.GetInt("port"),
		DatabasePath:   v.GetString("db-path"),
		SigningSecret:  v.GetString("signing-secret"),
		SigningTTL:     v.GetDuration("signing-ttl"),
		PageSize:       v.GetInt("page-size"),
		PageDelay:      v.GetDuration("page-delay"),
		AuthHeader:     v.GetString("auth-header"),
		StaleJobCutoff: v.GetDuration("stale-job-cutoff"),
		LogFormat:      v.GetString("log-format"),
		LogLevel:       v.GetString("log-level"),
	}
}

// GetStorageSettings converts Config to storage backend settings.
func (c *Config) GetStorageSettings() map[string]string {
	settings := make(map[string]string)

	if c.BackendPath != "" {
		settings["path"] = c.BackendPath
	}
	if c.BackendRegion != "" {
		settings["region"] = c.BackendRegion
	}
	if c.BackendKey != "" {
		settings["accessKey"] = c.BackendKey
	}
	if c.BackendSecret != "" {
		settings["secretKey"] = c.BackendSecret
	}
	if c.BackendURL != "" {
		settings["endpoint"] = c.BackendURL
	}

	return settings
}
