// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package emulated provides a file-backed device catalog. Each emulated
// device is described in a devices.json file and persists its SPI flash
// region in a plain image file, so flashing flows can be exercised without
// accelerator hardware.
//
// The backend registers under the ID "emulated". Its device directory is
// taken from the TTFLASH_EMULATED_DEVICES environment variable.
package emulated

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tenstorrent/tt-flash/pkg/device"
	"github.com/tenstorrent/tt-flash/pkg/fwversion"
)

// EnvDeviceDir selects the device directory for the registered backend.
const EnvDeviceDir = "TTFLASH_EMULATED_DEVICES"

// specName is the file describing the emulated devices, relative to the
// device directory.
const specName = "devices.json"

// imageFilePerm is used when creating flash image files.
const imageFilePerm = 0o644

func init() {
	device.Register(device.Record{
		ID: "emulated",
		New: func() (device.Catalog, error) {
			dir := os.Getenv(EnvDeviceDir)
			if dir == "" {
				return nil, fmt.Errorf("emulated backend: %s not set", EnvDeviceDir)
			}

			return NewCatalog(dir), nil
		},
	})
}

// deviceSpec is one entry of devices.json.
type deviceSpec struct {
	PCIIndex int    `json:"pci_index" validate:"min=0"`
	Board    string `json:"board" validate:"required"`
	Version  string `json:"version" validate:"required"`
	Image    string `json:"image" validate:"required"`

	Topology *topologySpec `json:"topology,omitempty"`
}

type topologySpec struct {
	Kind string `json:"kind" validate:"oneof=standalone local remote"`
	Peer int    `json:"peer"`
}

// Catalog enumerates emulated devices from a device directory.
type Catalog struct {
	dir string
}

// NewCatalog returns a catalog backed by the given device directory.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir}
}

// Enumerate reads devices.json and returns a handle per described device.
func (c *Catalog) Enumerate(_ context.Context) ([]device.Handle, error) {
	raw, err := os.ReadFile(filepath.Join(c.dir, specName))
	if err != nil {
		return nil, fmt.Errorf("emulated backend: %w", err)
	}

	var specs []deviceSpec
	if err := json.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("emulated backend: %s: %w", specName, err)
	}

	validate := validator.New()

	handles := make([]device.Handle, 0, len(specs))
	byIndex := make(map[int]*handle)

	for _, spec := range specs {
		if err := validate.Struct(&spec); err != nil {
			return nil, fmt.Errorf("emulated backend: %s: %w", specName, err)
		}

		h, err := c.newHandle(spec)
		if err != nil {
			return nil, err
		}

		if _, dup := byIndex[h.dev.PCIIndex]; dup {
			return nil, fmt.Errorf("emulated backend: duplicate pci_index %d", h.dev.PCIIndex)
		}

		byIndex[h.dev.PCIIndex] = h
		handles = append(handles, h)
	}

	// Resolve peer image paths for local chips, so CopyToRemote can
	// propagate the image.
	for _, h := range byIndex {
		if h.dev.Topology.Kind != device.LocalOf {
			continue
		}

		peer, ok := byIndex[h.dev.Topology.Peer]
		if !ok {
			return nil, fmt.Errorf("emulated backend: device %d: peer %d not described",
				h.dev.PCIIndex, h.dev.Topology.Peer)
		}

		h.peerImage = peer.image
	}

	return handles, nil
}

func (c *Catalog) newHandle(spec deviceSpec) (*handle, error) {
	board, ok := device.LookupBoard(spec.Board)
	if !ok {
		return nil, fmt.Errorf("emulated backend: unknown board type %q", spec.Board)
	}

	current, err := fwversion.Parse(spec.Version)
	if err != nil {
		return nil, fmt.Errorf("emulated backend: device %d: %w", spec.PCIIndex, err)
	}

	topology := device.Topology{Kind: device.Standalone}

	if spec.Topology != nil {
		switch spec.Topology.Kind {
		case "local":
			topology = device.Topology{Kind: device.LocalOf, Peer: spec.Topology.Peer}
		case "remote":
			topology = device.Topology{Kind: device.RemoteOf, Peer: spec.Topology.Peer}
		}
	}

	reset := device.ResetManualOnly
	if board.AutoReset {
		reset = device.ResetAuto
	}

	h := &handle{
		image: filepath.Join(c.dir, spec.Image),
		dev: device.Device{
			PCIIndex: spec.PCIIndex,
			Board:    board,
			Topology: topology,
			Current:  current,
			Reset:    reset,
		},
	}

	if data, err := os.ReadFile(h.image); err == nil {
		sum := sha256.Sum256(data)
		h.dev.CurrentChecksum = sum[:]
	}

	return h, nil
}

// handle is a file-backed device handle.
type handle struct {
	dev       device.Device
	image     string
	peerImage string
}

func (h *handle) Device() device.Device {
	return h.dev
}

func (h *handle) ReadRegion(_ context.Context, n int) ([]byte, error) {
	data, err := os.ReadFile(h.image)
	if err != nil {
		return nil, fmt.Errorf("%w: read flash image: %v", device.ErrCommunication, err)
	}

	if len(data) < n {
		// Unwritten flash reads back as all ones.
		pad := make([]byte, n-len(data))
		for i := range pad {
			pad[i] = 0xFF
		}

		data = append(data, pad...)
	}

	return data[:n], nil
}

func (h *handle) WriteRegion(_ context.Context, data []byte) error {
	if err := os.WriteFile(h.image, data, imageFilePerm); err != nil {
		return fmt.Errorf("%w: write flash image: %v", device.ErrCommunication, err)
	}

	return nil
}

func (h *handle) CopyToRemote(ctx context.Context) error {
	if h.dev.Topology.Kind != device.LocalOf {
		return errors.New("copy to remote on a device without a remote chip")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(h.image)
	if err != nil {
		return fmt.Errorf("%w: read flash image: %v", device.ErrCommunication, err)
	}

	if err := os.WriteFile(h.peerImage, data, imageFilePerm); err != nil {
		return fmt.Errorf("%w: write remote flash image: %v", device.ErrCommunication, err)
	}

	return nil
}

func (h *handle) ResetLink(_ context.Context) error {
	// The emulated device has no link to cycle.
	return nil
}

func (h *handle) WaitReappear(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := os.Stat(h.image); err != nil {
		return fmt.Errorf("%w: device image vanished: %v", device.ErrCommunication, err)
	}

	return nil
}
