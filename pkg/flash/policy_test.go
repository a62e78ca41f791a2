// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package flash

import (
	"crypto/sha256"
	"errors"
	"strings"
	"testing"

	"github.com/tenstorrent/tt-flash/pkg/bundle"
	"github.com/tenstorrent/tt-flash/pkg/device"
	"github.com/tenstorrent/tt-flash/pkg/fwversion"
)

func v(fwID, release, patch, debug uint32) fwversion.Version {
	return fwversion.Version{FwID: fwID, Release: release, Patch: patch, Debug: debug}
}

// testDevice builds a detected device of the given board type.
func testDevice(t *testing.T, idx int, board string, current fwversion.Version) device.Device {
	t.Helper()

	b, ok := device.LookupBoard(board)
	if !ok {
		t.Fatalf("unknown board type %q", board)
	}

	reset := device.ResetManualOnly
	if b.AutoReset {
		reset = device.ResetAuto
	}

	return device.Device{PCIIndex: idx, Board: b, Current: current, Reset: reset}
}

// testBundle builds an in-memory bundle with consistent checksums.
func testBundle(t *testing.T, version fwversion.Version, payloads map[string][]byte) *bundle.Bundle {
	t.Helper()

	entries := make([]bundle.Entry, 0, len(payloads))

	for board, payload := range payloads {
		entries = append(entries, bundle.Entry{
			Board:    board,
			Version:  version,
			Checksum: sha256.Sum256(payload),
			Payload:  payload,
		})
	}

	b, err := bundle.New(version, entries)
	if err != nil {
		t.Fatalf("building bundle: %v", err)
	}

	return b
}

func TestDecide(t *testing.T) {
	bdl := testBundle(t, v(80, 18, 2, 0), map[string][]byte{
		"NEBULA_X1": []byte("nebula firmware"),
	})

	tests := []struct {
		name        string
		dev         device.Device
		force       bool
		skipMissing bool
		wantAction  Action
		wantReason  SkipReason
		wantErr     error
	}{
		{
			name:       "older firmware is updated",
			dev:        testDevice(t, 0, "NEBULA_X1", v(80, 17, 0, 0)),
			wantAction: ActionUpdate,
		},
		{
			name:       "equal version is skipped",
			dev:        testDevice(t, 0, "NEBULA_X1", v(80, 18, 2, 0)),
			wantAction: ActionSkip,
			wantReason: SkipUpToDate,
		},
		{
			name:       "newer firmware is skipped",
			dev:        testDevice(t, 0, "NEBULA_X1", v(80, 19, 0, 0)),
			wantAction: ActionSkip,
			wantReason: SkipUpToDate,
		},
		{
			name:       "force overrides up to date",
			dev:        testDevice(t, 0, "NEBULA_X1", v(80, 18, 2, 0)),
			force:      true,
			wantAction: ActionUpdate,
		},
		{
			name:       "unknown firmware is determined as older",
			dev:        testDevice(t, 0, "NEBULA_X1", fwversion.Version{}),
			wantAction: ActionUpdate,
		},
		{
			name:    "missing bundle entry is an error",
			dev:     testDevice(t, 0, "E150", v(1, 0, 0, 0)),
			wantErr: ErrMissingFirmware,
		},
		{
			name:        "missing bundle entry is skipped on request",
			dev:         testDevice(t, 0, "E150", v(1, 0, 0, 0)),
			skipMissing: true,
			wantAction:  ActionSkip,
			wantReason:  SkipMissingFirmware,
		},
		{
			name: "remote chip is never flashed directly",
			dev: device.Device{
				PCIIndex: 1,
				Board:    mustBoard(t, "NEBULA_X2"),
				Topology: device.Topology{Kind: device.RemoteOf, Peer: 0},
			},
			wantAction: ActionSkip,
			wantReason: SkipPairedRemote,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decide(tt.dev, bdl, tt.force, tt.skipMissing)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decide() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("Decide() unexpected error: %v", err)
			}

			if d.Action != tt.wantAction {
				t.Errorf("action = %v, want %v", d.Action, tt.wantAction)
			}

			if d.Reason != tt.wantReason {
				t.Errorf("reason = %v, want %v", d.Reason, tt.wantReason)
			}
		})
	}
}

func TestDecideChecksumDrift(t *testing.T) {
	bdl := testBundle(t, v(80, 18, 2, 0), map[string][]byte{
		"NEBULA_X1": []byte("nebula firmware"),
	})

	dev := testDevice(t, 0, "NEBULA_X1", v(80, 18, 2, 0))
	other := sha256.Sum256([]byte("something else"))
	dev.CurrentChecksum = other[:]

	d, err := Decide(dev, bdl, false, false)
	if err != nil {
		t.Fatalf("Decide() unexpected error: %v", err)
	}

	if d.Action != ActionSkip {
		t.Errorf("action = %v, want skip despite checksum drift", d.Action)
	}

	if !strings.Contains(d.Note, "differs") {
		t.Errorf("note = %q, want checksum drift warning", d.Note)
	}
}

func mustBoard(t *testing.T, name string) device.Board {
	t.Helper()

	b, ok := device.LookupBoard(name)
	if !ok {
		t.Fatalf("unknown board type %q", name)
	}

	return b
}
