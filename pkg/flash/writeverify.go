// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package flash

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/tenstorrent/tt-flash/pkg/bundle"
	"github.com/tenstorrent/tt-flash/pkg/device"
)

// defaultRemoteCopyWait bounds the propagation of a freshly written image to
// the remote chip of a paired board.
const defaultRemoteCopyWait = 15 * time.Second

// detailRemoteCopyTimeout marks a remote propagation that did not finish in
// time, as opposed to a corrupted local image.
const detailRemoteCopyTimeout = "remote copy timed out"

// WriteVerifier performs the write and read-back verification for a single
// device. A failed write is never retried; the device is reported and the
// run moves on.
type WriteVerifier struct {
	// RemoteCopyWait bounds CopyToRemote for paired boards. Zero selects
	// the default.
	RemoteCopyWait time.Duration
}

// Apply writes the firmware entry to the device, reads it back and compares
// it against the entry checksum. For the local chip of a pair it then
// propagates the image to the remote chip.
//
// Errors are folded into the returned statuses and detail; they stay scoped
// to this device.
func (wv WriteVerifier) Apply(ctx context.Context, h device.Handle, entry bundle.Entry) (WriteStatus, VerifyStatus, string) {
	if err := h.WriteRegion(ctx, entry.Payload); err != nil {
		return WriteFailed, VerifyNotAttempted, fmt.Sprintf("write: %v", err)
	}

	got, err := h.ReadRegion(ctx, len(entry.Payload))
	if err != nil {
		return WriteSuccess, VerifyMismatch, fmt.Sprintf("read back: %v", err)
	}

	if sha256.Sum256(got) != entry.Checksum {
		offset, count := firstMismatch(entry.Payload, got)

		return WriteSuccess, VerifyMismatch,
			fmt.Sprintf("first mismatch at offset %#x, %d bytes differ", offset, count)
	}

	if h.Device().Topology.Kind == device.LocalOf {
		wait := wv.RemoteCopyWait
		if wait <= 0 {
			wait = defaultRemoteCopyWait
		}

		copyCtx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()

		if err := h.CopyToRemote(copyCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return WriteSuccess, VerifyMismatch, detailRemoteCopyTimeout
			}

			return WriteSuccess, VerifyMismatch, fmt.Sprintf("remote copy: %v", err)
		}
	}

	return WriteSuccess, VerifySuccess, ""
}

// firstMismatch locates the first differing byte between the written image
// and the read-back and counts the total number of differing bytes. A length
// difference counts the excess bytes as differing.
func firstMismatch(want, got []byte) (offset, count int) {
	offset = -1

	n := len(want)
	if len(got) < n {
		n = len(got)
	}

	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			if offset < 0 {
				offset = i
			}

			count++
		}
	}

	if len(want) != len(got) {
		if offset < 0 {
			offset = n
		}

		count += len(want) - n + len(got) - n
	}

	return offset, count
}
