// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package flash implements the firmware update orchestration: deciding per
// device whether to update, writing and verifying images, planning resets
// and collecting everything into a run result.
package flash

import "github.com/tenstorrent/tt-flash/pkg/device"

// Action is the decided handling of a device.
type Action int

const (
	// ActionSkip leaves the device untouched.
	ActionSkip Action = iota
	// ActionUpdate schedules the device for a firmware write.
	ActionUpdate
)

func (a Action) String() string {
	if a == ActionUpdate {
		return "flash"
	}

	return "skip"
}

// SkipReason states why a device is not updated.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipUpToDate means the running firmware is at least the bundle version.
	SkipUpToDate
	// SkipMissingFirmware means the bundle carries no image for the board.
	SkipMissingFirmware
	// SkipPairedRemote means the chip is the remote half of a pair and
	// receives its image through the local chip.
	SkipPairedRemote
)

func (r SkipReason) String() string {
	switch r {
	case SkipUpToDate:
		return "already up to date"
	case SkipMissingFirmware:
		return "no firmware for this board in the bundle"
	case SkipPairedRemote:
		return "paired remote, flashed through the local chip"
	default:
		return ""
	}
}

// WriteStatus is the outcome of the flash write step.
type WriteStatus int

const (
	WriteNotAttempted WriteStatus = iota
	WriteSuccess
	WriteFailed
)

func (s WriteStatus) String() string {
	switch s {
	case WriteSuccess:
		return "success"
	case WriteFailed:
		return "failed"
	default:
		return "not-attempted"
	}
}

// VerifyStatus is the outcome of the read-back verification step.
type VerifyStatus int

const (
	VerifyNotAttempted VerifyStatus = iota
	VerifySuccess
	VerifyMismatch
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifySuccess:
		return "success"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "not-attempted"
	}
}

// ResetStatus is the outcome of the reset step that activates new firmware.
type ResetStatus int

const (
	// ResetNotRequired applies to devices that were not written.
	ResetNotRequired ResetStatus = iota
	// ResetAutoCompleted means the device came back on the new firmware.
	ResetAutoCompleted
	// ResetAutoFailed means an attempted automatic reset did not complete.
	// The written image stays in flash; it is never rolled back.
	ResetAutoFailed
	// ResetManualRequired means the operator has to power cycle or reboot
	// the host to activate the new firmware.
	ResetManualRequired
)

func (s ResetStatus) String() string {
	switch s {
	case ResetAutoCompleted:
		return "auto-completed"
	case ResetAutoFailed:
		return "auto-failed"
	case ResetManualRequired:
		return "manual-required"
	default:
		return "not-required"
	}
}

// Decision is the read-only verdict of the update policy for one device.
type Decision struct {
	Action Action
	// Reason is set for ActionSkip.
	Reason SkipReason
	// Note carries a warning that does not change the action, e.g. a
	// checksum drift at equal versions.
	Note string
}

// Outcome is the collected result of one device over a whole run.
type Outcome struct {
	Device   device.Device
	Decision Decision
	Write    WriteStatus
	Verify   VerifyStatus
	Reset    ResetStatus
	// Detail explains a non-success status in operator terms.
	Detail string
}

// ok reports whether this device counts towards an overall success.
func (o Outcome) ok() bool {
	if o.Decision.Action == ActionSkip {
		return true
	}

	return o.Write == WriteSuccess &&
		o.Verify == VerifySuccess &&
		o.Reset != ResetAutoFailed
}

// Verdict is the overall result of a run.
type Verdict int

const (
	// VerdictSuccess means every device was either skipped or updated,
	// verified and left in a defined reset state.
	VerdictSuccess Verdict = iota
	// VerdictPartialFailure means at least one write was attempted and at
	// least one device did not complete cleanly.
	VerdictPartialFailure
	// VerdictAborted means the run stopped before any write happened.
	VerdictAborted
)

func (v Verdict) String() string {
	switch v {
	case VerdictPartialFailure:
		return "PARTIAL_FAILURE"
	case VerdictAborted:
		return "ABORTED"
	default:
		return "SUCCESS"
	}
}

// Result is what a pipeline run hands back to the caller.
type Result struct {
	Verdict  Verdict
	Outcomes []Outcome
}

// verdict folds per-device outcomes into the overall verdict of a run that
// made it past the point of no return.
func verdict(outcomes []Outcome) Verdict {
	for _, o := range outcomes {
		if !o.ok() {
			return VerdictPartialFailure
		}
	}

	return VerdictSuccess
}
