// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// supportedFormatMajor is the newest package-format major version this
// reader understands. Bundles declare their format in the manifest's
// "version" field.
const supportedFormatMajor = 1

// manifest is the schema of the manifest.json archive member.
type manifest struct {
	// Version is the package-format version, e.g. "1.2.0".
	Version string `json:"version" validate:"required"`

	BundleVersion bundleVersion `json:"bundle_version"`

	Boards []manifestBoard `json:"boards" validate:"required,min=1,dive"`
}

type bundleVersion struct {
	FwID      uint32 `json:"fwId"`
	ReleaseID uint32 `json:"releaseId"`
	Patch     uint32 `json:"patch"`
	Debug     uint32 `json:"debug"`
}

type manifestBoard struct {
	// Name is the board type identifier the entry applies to.
	Name string `json:"name" validate:"required"`
	// Image is the archive member holding the firmware payload.
	Image string `json:"image" validate:"required"`
	// Checksum is the hex encoded SHA-256 digest of the payload.
	Checksum string `json:"checksum" validate:"required,len=64,hexadecimal"`
	// Version optionally overrides the bundle version for this board.
	Version string `json:"version,omitempty"`
}

func parseManifest(raw []byte) (*manifest, error) {
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedBundle, manifestName, err)
	}

	validate := validator.New()
	if err := validate.Struct(&m); err != nil {
		return nil, wrapValidatorErrors(err)
	}

	major, err := formatMajor(m.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedBundle, manifestName, err)
	}

	if major > supportedFormatMajor {
		return nil, fmt.Errorf("%w: package format %s, this tool supports formats up to %d.x",
			ErrUnsupportedBundle, m.Version, supportedFormatMajor)
	}

	return &m, nil
}

func formatMajor(version string) (int, error) {
	head, _, _ := strings.Cut(version, ".")

	major, err := strconv.Atoi(head)
	if err != nil || major < 0 {
		return 0, fmt.Errorf("invalid package-format version %q", version)
	}

	return major, nil
}

func wrapValidatorErrors(err error) error {
	var valErrors validator.ValidationErrors
	if !errors.As(err, &valErrors) {
		return fmt.Errorf("%w: %s: %v", ErrMalformedBundle, manifestName, err)
	}

	errMsg := make([]string, 0, len(valErrors))
	for _, valErr := range valErrors {
		errMsg = append(errMsg,
			fmt.Sprintf("field validation for '%s' failed on the '%s' tag",
				valErr.Namespace(), valErr.Tag()))
	}

	return fmt.Errorf("%w: %s: %s", ErrMalformedBundle, manifestName, strings.Join(errMsg, "; "))
}
