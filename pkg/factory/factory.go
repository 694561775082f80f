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

// Package factory creates object store backends by type name.
package factory

import (
	"github.com/jeremyhahn/go-bucketadmin/pkg/common"
)

// StoreCreator is a function that creates a configured store backend.
type StoreCreator func(settings map[string]string) (common.ObjectStore, error)

var storeRegistry = make(map[string]StoreCreator)

// RegisterStore registers a store backend creator under a type name.
func RegisterStore(backendType string, creator StoreCreator) {
	storeRegistry[backendType] = creator
}

// NewStore creates a new store backend of the given type.
func NewStore(backendType string, settings map[string]string) (common.ObjectStore, error) {
	creator, exists := storeRegistry[backendType]
	if !exists {
		return nil, ErrUnknownBackend
	}
	return creator(settings)
}

// Backends returns the registered backend type names.
func Backends() []string {
	names := make([]string, 0, len(storeRegistry))
	for name := range storeRegistry {
		names = append(names, name)
	}
	return names
}
