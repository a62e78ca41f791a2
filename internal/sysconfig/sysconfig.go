// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package sysconfig loads the optional system configuration. The config
// describes how the machine's chassis are wired for reset coordination:
// which BMC to power-cycle per chassis, which devices that cycle covers,
// and which PCI interfaces may receive an in-band link reset.
//
// The config is optional. Running without it only disables cross-chassis
// reset coordination.
package sysconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// Default search locations, tried in order when no explicit path is given.
const (
	globalPath = "/etc/tenstorrent/config.json"
	localPath  = ".config/tenstorrent/config.json" // relative to $HOME
)

var ErrInvalidConfig = errors.New("invalid sys-config")

// Config is the parsed system configuration.
type Config struct {
	// ChassisReset lists chassis whose boards are reset by power-cycling
	// the chassis through its BMC.
	ChassisReset []ChassisEntry `json:"chassis_reset" validate:"dive"`

	// LinkReset restricts which PCI interfaces may receive an in-band
	// link reset. An empty list places no restriction.
	LinkReset LinkReset `json:"link_reset"`
}

// ChassisEntry is one chassis and the devices its power cycle covers.
type ChassisEntry struct {
	// Name identifies the chassis in reports.
	Name string `json:"name" validate:"required"`
	// BMC is the management controller that executes the power cycle.
	BMC BMC `json:"bmc"`
	// PCIIndexes are the host PCI interfaces of the boards in this
	// chassis. A chassis cycle resets all of them at once.
	PCIIndexes []int `json:"pci_indexes"`
}

// BMC is the endpoint of a chassis management controller.
type BMC struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
}

// LinkReset restricts in-band link resets to the listed PCI interfaces.
type LinkReset struct {
	PCIIndexes []int `json:"pci_index"`
}

// Chassis returns the chassis entry covering the given PCI interface, or nil.
func (c *Config) Chassis(pciIndex int) *ChassisEntry {
	if c == nil {
		return nil
	}

	for i := range c.ChassisReset {
		for _, idx := range c.ChassisReset[i].PCIIndexes {
			if idx == pciIndex {
				return &c.ChassisReset[i]
			}
		}
	}

	return nil
}

// AllowsLinkReset reports whether the given PCI interface may receive an
// in-band link reset. With no config, or no restriction list, every
// interface is allowed.
func (c *Config) AllowsLinkReset(pciIndex int) bool {
	if c == nil || len(c.LinkReset.PCIIndexes) == 0 {
		return true
	}

	for _, idx := range c.LinkReset.PCIIndexes {
		if idx == pciIndex {
			return true
		}
	}

	return false
}

// Load reads the config from path. With an empty path the default locations
// are searched; if none exists, Load returns (nil, nil), as a missing config
// is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		found, ok := locate()
		if !ok {
			return nil, nil
		}

		path = found
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sys-config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}

	return &cfg, nil
}

// locate searches the default config locations.
func locate() (string, bool) {
	candidates := []string{globalPath}

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, localPath))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, true
		}
	}

	return "", false
}
