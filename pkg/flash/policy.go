// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package flash

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tenstorrent/tt-flash/pkg/bundle"
	"github.com/tenstorrent/tt-flash/pkg/device"
)

// ErrMissingFirmware indicates that the bundle has no image for a detected
// board and skipping was not requested. It aborts the run before any write.
var ErrMissingFirmware = errors.New("no firmware for board in bundle")

// Decide is the update policy for a single device. It only inspects state
// and never touches the hardware.
//
// force schedules an update even when the running firmware is not older
// than the bundle. skipMissing turns an absent bundle entry into a skip
// instead of an error.
func Decide(dev device.Device, bdl *bundle.Bundle, force, skipMissing bool) (Decision, error) {
	// Remote chips of a pair receive their image through the local chip.
	if dev.Topology.Kind == device.RemoteOf {
		return Decision{Action: ActionSkip, Reason: SkipPairedRemote}, nil
	}

	entry, ok := bdl.Entry(dev.Board.Name)
	if !ok {
		if skipMissing {
			return Decision{Action: ActionSkip, Reason: SkipMissingFirmware}, nil
		}

		return Decision{}, fmt.Errorf("%w: %s", ErrMissingFirmware, dev.Board.Name)
	}

	if !force && !dev.Current.Less(entry.Version) {
		d := Decision{Action: ActionSkip, Reason: SkipUpToDate}

		// Same version but a different image in flash is suspicious.
		// It is reported, never silently re-flashed.
		if dev.Current.Compare(entry.Version) == 0 &&
			len(dev.CurrentChecksum) > 0 &&
			!bytes.Equal(dev.CurrentChecksum, entry.Checksum[:]) {
			d.Note = fmt.Sprintf(
				"installed image differs from bundle image at the same version %s, use force to re-flash",
				entry.Version)
		}

		return d, nil
	}

	return Decision{Action: ActionUpdate}, nil
}
