// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package bundle reads firmware bundles. A bundle is a tar archive holding a
// manifest and one firmware image per supported board type. Parsing validates
// the archive structure and the manifest schema; the image payloads themselves
// are opaque and only checked against their checksum at flash time, by
// reading the SPI region back.
package bundle

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/tenstorrent/tt-flash/pkg/fwversion"
)

var (
	ErrMalformedBundle   = errors.New("malformed firmware bundle")
	ErrMissingManifest   = errors.New("no manifest in firmware bundle")
	ErrUnsupportedBundle = errors.New("unsupported firmware bundle format")
)

// manifestName is the archive member holding the bundle manifest.
const manifestName = "manifest.json"

// Entry is the firmware for a single board type.
type Entry struct {
	// Board is the board type identifier, e.g. "NEBULA_X2".
	Board string
	// Version is the bundle version of this firmware.
	Version fwversion.Version
	// Checksum is the SHA-256 digest of Payload as declared by the manifest.
	Checksum [sha256.Size]byte
	// Payload is the raw image to be written to the SPI flash.
	Payload []byte
}

// Bundle is the parsed content of a firmware bundle file.
//
// Entries keep the manifest order. Board type keys are unique.
type Bundle struct {
	// Version is the bundle version common to all entries.
	Version fwversion.Version

	entries []Entry
	index   map[string]int
}

// Entry returns the firmware entry for the given board type.
func (b *Bundle) Entry(board string) (Entry, bool) {
	i, ok := b.index[board]
	if !ok {
		return Entry{}, false
	}

	return b.entries[i], true
}

// Boards returns all board type identifiers in manifest order.
func (b *Bundle) Boards() []string {
	boards := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		boards = append(boards, e.Board)
	}

	return boards
}

// Len returns the number of firmware entries.
func (b *Bundle) Len() int {
	return len(b.entries)
}

// New assembles a bundle from already validated entries. It is meant for
// callers that build bundles programmatically, e.g. tests.
func New(version fwversion.Version, entries []Entry) (*Bundle, error) {
	b := &Bundle{
		Version: version,
		index:   make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		if _, dup := b.index[e.Board]; dup {
			return nil, fmt.Errorf("%w: duplicate board type %q", ErrMalformedBundle, e.Board)
		}

		b.index[e.Board] = len(b.entries)
		b.entries = append(b.entries, e)
	}

	return b, nil
}

// Parse reads and validates the firmware bundle at the given path.
func Parse(fwPath string) (*Bundle, error) {
	f, err := os.Open(fwPath)
	if err != nil {
		return nil, fmt.Errorf("open firmware bundle: %w", err)
	}
	defer f.Close()

	b, err := ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fwPath, err)
	}

	return b, nil
}

// ParseReader reads and validates a firmware bundle from r.
func ParseReader(r io.Reader) (*Bundle, error) {
	members, err := readArchive(r)
	if err != nil {
		return nil, err
	}

	raw, ok := members[manifestName]
	if !ok {
		return nil, ErrMissingManifest
	}

	m, err := parseManifest(raw)
	if err != nil {
		return nil, err
	}

	bundleVersion := fwversion.Version{
		FwID:    m.BundleVersion.FwID,
		Release: m.BundleVersion.ReleaseID,
		Patch:   m.BundleVersion.Patch,
		Debug:   m.BundleVersion.Debug,
	}

	b := &Bundle{
		Version: bundleVersion,
		index:   make(map[string]int),
	}

	for _, mb := range m.Boards {
		if _, dup := b.index[mb.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate board type %q", ErrMalformedBundle, mb.Name)
		}

		payload, ok := members[path.Clean(mb.Image)]
		if !ok {
			return nil, fmt.Errorf("%w: board %q: image %q not in archive", ErrMalformedBundle, mb.Name, mb.Image)
		}

		entry := Entry{
			Board:   mb.Name,
			Version: bundleVersion,
			Payload: payload,
		}

		sum, err := hex.DecodeString(mb.Checksum)
		if err != nil || len(sum) != sha256.Size {
			return nil, fmt.Errorf("%w: board %q: checksum must be %d hex characters",
				ErrMalformedBundle, mb.Name, 2*sha256.Size)
		}

		copy(entry.Checksum[:], sum)

		if mb.Version != "" {
			v, err := fwversion.Parse(mb.Version)
			if err != nil {
				return nil, fmt.Errorf("%w: board %q: %v", ErrMalformedBundle, mb.Name, err)
			}

			entry.Version = v
		}

		b.index[entry.Board] = len(b.entries)
		b.entries = append(b.entries, entry)
	}

	return b, nil
}

// readArchive loads all regular archive members into memory, keyed by their
// cleaned member name. Bundles are small enough (tens of megabytes) that
// buffering them avoids a second pass over the sequential tar stream.
func readArchive(r io.Reader) (map[string][]byte, error) {
	members := make(map[string][]byte)

	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBundle, err)
		}

		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: read %q: %v", ErrMalformedBundle, hdr.Name, err)
		}

		members[path.Clean(hdr.Name)] = data
	}

	return members, nil
}
