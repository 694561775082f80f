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

// Package version holds build version information.
package version

// Version is the current release version, overridden at build time via
// -ldflags "-X github.com/jeremyhahn/go-bucketadmin/pkg/version.Version=...".
var Version = "0.1.0-beta"

// GitCommit is the git commit hash, set at build time.
var GitCommit = "unknown"
