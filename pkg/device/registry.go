// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package device

import (
	"fmt"
	"slices"
	"sync"
)

//nolint:gochecknoglobals
var (
	backends = make(map[string]Record)
	mutex    sync.RWMutex
)

// Record holds the information required to register a catalog backend.
// Backends are the bridge to a concrete hardware-access implementation.
// The PCI backend ships with the hardware-access library and registers
// itself when linked into a build; the emulated backend in this repository
// serves development and tests.
type Record struct {
	// ID is the unique identifier of the backend, e.g. "pci".
	ID string
	// New is the factory function creating the backend's catalog. It must
	// not touch hardware; device access starts with Catalog.Enumerate.
	New func() (Catalog, error)
}

// Register registers a catalog backend. It is meant to be called from the
// backend package's init function.
func Register(r Record) {
	if r.ID == "" {
		panic("backend ID missing")
	}

	if r.New == nil {
		panic("missing factory function 'New func() (Catalog, error)'")
	}

	mutex.Lock()
	defer mutex.Unlock()

	if _, ok := backends[r.ID]; ok {
		panic(fmt.Sprintf("backend already registered: %s", r.ID))
	}

	backends[r.ID] = r
}

// NewCatalog creates the catalog of a registered backend. With an empty name
// the sole registered backend is used; an empty name is an error when more
// than one backend is linked in.
func NewCatalog(name string) (Catalog, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	if name == "" {
		if len(backends) == 1 {
			for _, b := range backends {
				return b.New()
			}
		}

		return nil, fmt.Errorf("no device backend selected, available: %v", backendIDs())
	}

	b, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("device backend %q not available, have: %v", name, backendIDs())
	}

	return b.New()
}

// BackendIDs returns the IDs of all registered backends, sorted.
func BackendIDs() []string {
	mutex.RLock()
	defer mutex.RUnlock()

	return backendIDs()
}

func backendIDs() []string {
	ids := make([]string, 0, len(backends))
	for id := range backends {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
