// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package fwversion provides the firmware bundle version scheme used by
// Tenstorrent accelerator boards. A bundle version is a 4-tuple of
// fwId, releaseId, patch and debug components, ordered lexicographically.
package fwversion

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// parts is the number of components in a bundle version.
const parts = 4

var ErrInvalidVersion = errors.New("invalid firmware version")

// Version is a firmware bundle version.
// The components are compared lexicographically, fwId first.
type Version struct {
	FwID    uint32
	Release uint32
	Patch   uint32
	Debug   uint32
}

// Parse parses a version string of the form "fwId.releaseId.patch.debug",
// e.g. "80.18.2.0". All four components must be present and non-negative.
func Parse(s string) (Version, error) {
	fields := strings.Split(s, ".")
	if len(fields) != parts {
		return Version{}, fmt.Errorf("%w: %q: expected %d components", ErrInvalidVersion, s, parts)
	}

	var nums [parts]uint32

	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: component %d: %v", ErrInvalidVersion, s, i+1, err)
		}

		nums[i] = uint32(n)
	}

	return Version{FwID: nums[0], Release: nums[1], Patch: nums[2], Debug: nums[3]}, nil
}

// String returns the dotted form of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.FwID, v.Release, v.Patch, v.Debug)
}

// Compare orders v against other lexicographically. It returns -1 if v is
// older, 0 if both are equal and 1 if v is newer.
func (v Version) Compare(other Version) int {
	a := [parts]uint32{v.FwID, v.Release, v.Patch, v.Debug}
	b := [parts]uint32{other.FwID, other.Release, other.Patch, other.Debug}

	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}

	return 0
}

// Less reports whether v is strictly older than other.
func (v Version) Less(other Version) bool {
	return v.Compare(other) < 0
}

// IsZero reports whether all components are zero. The zero version is used
// for devices whose running firmware could not be determined.
func (v Version) IsZero() bool {
	return v == Version{}
}
