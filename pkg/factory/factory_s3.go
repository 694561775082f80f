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

package factory

import (
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
	"github.com/jeremyhahn/go-bucketadmin/pkg/store/s3"
)

func init() {
	// "s3" covers AWS S3 and any S3-compatible endpoint; "r2" is an alias
	// kept for configs written against Cloudflare R2.
	creator := func(settings map[string]string) (common.ObjectStore, error) {
		store := s3.New()
		if err := store.Configure(settings); err != nil {
			return nil, err
		}
		return store, nil
	}
	RegisterStore("s3", creator)
	RegisterStore("r2", creator)
}
