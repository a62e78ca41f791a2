// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package device provides the representation of detected accelerator devices
// and the capability interface to the hardware-access layer that owns the
// actual chip communication.
package device

import (
	"errors"
	"fmt"

	"github.com/tenstorrent/tt-flash/pkg/fwversion"
)

var (
	// ErrCommunication indicates that talking to a device failed. It is
	// scoped to the affected device and does not invalidate others.
	ErrCommunication = errors.New("device communication error")
)

// TopologyKind discriminates how a chip relates to others on its board.
type TopologyKind int

const (
	// Standalone is a single-chip board.
	Standalone TopologyKind = iota
	// LocalOf is the host-facing chip of a pair; its flash image is
	// propagated to the remote chip after a successful write.
	LocalOf
	// RemoteOf is the subordinate chip of a pair. It is never flashed or
	// reset independently.
	RemoteOf
)

func (k TopologyKind) String() string {
	switch k {
	case LocalOf:
		return "local"
	case RemoteOf:
		return "remote"
	default:
		return "standalone"
	}
}

// Topology places a chip on its board. For LocalOf and RemoteOf, Peer is the
// PCI index of the counterpart chip.
type Topology struct {
	Kind TopologyKind
	Peer int
}

// ResetCapability states whether a device can be brought up on new firmware
// without operator involvement.
type ResetCapability int

const (
	// ResetManualOnly means new firmware is activated by a host reboot.
	ResetManualOnly ResetCapability = iota
	// ResetAuto means the device supports an in-band PCI link reset.
	ResetAuto
)

func (r ResetCapability) String() string {
	if r == ResetAuto {
		return "auto"
	}

	return "manual-only"
}

// Device is one detected accelerator chip. It is immutable for the duration
// of a pipeline run; a reset that changes device state requires a fresh
// enumeration to observe it.
type Device struct {
	// PCIIndex is the index of the PCI interface the chip is reached through.
	PCIIndex int
	// Board identifies the board type and its capabilities.
	Board Board
	// Topology places the chip on its board.
	Topology Topology
	// Current is the firmware bundle version the device reports. The zero
	// version means the running firmware could not be determined.
	Current fwversion.Version
	// CurrentChecksum is the digest of the currently flashed image, when
	// the hardware-access layer can provide it. May be nil.
	CurrentChecksum []byte
	// Reset is the device's reset capability.
	Reset ResetCapability
}

// String identifies the device in logs and reports, e.g. "Wormhole[0] NEBULA_X2".
func (d Device) String() string {
	return fmt.Sprintf("%s[%d] %s", d.Board.Family, d.PCIIndex, d.Board.Name)
}
