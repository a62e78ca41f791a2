// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package device

import (
	"context"
	"time"
)

// Handle is the capability a catalog hands out per detected device. It is
// the only way the flashing engine touches hardware. A handle holds
// exclusive access to its device for the lifetime of a pipeline run.
type Handle interface {
	// Device returns the immutable description of the device.
	Device() Device

	// ReadRegion reads n bytes from the start of the firmware region of
	// the SPI flash.
	ReadRegion(ctx context.Context, n int) ([]byte, error)

	// WriteRegion erases and writes the firmware region. The operation is
	// bounded by the hardware and not cancellable once started.
	WriteRegion(ctx context.Context, data []byte) error

	// CopyToRemote propagates the local chip's flash image to the remote
	// chip of a paired board. It blocks until the remote reports
	// completion or ctx expires. Only valid for LocalOf devices.
	CopyToRemote(ctx context.Context) error

	// ResetLink issues a PCI link reset to activate flashed firmware.
	ResetLink(ctx context.Context) error

	// WaitReappear polls for the device to come back on the bus with the
	// same identity after a link reset. It returns once the device is
	// present again, or with an error when the timeout elapses or ctx is
	// cancelled.
	WaitReappear(ctx context.Context, timeout time.Duration) error
}

// Catalog enumerates the physical devices present in the machine.
type Catalog interface {
	// Enumerate returns a handle per detected device, in stable detection
	// order. The result is a point-in-time snapshot.
	Enumerate(ctx context.Context) ([]Handle, error)
}
