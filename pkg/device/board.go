// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package device

// Family is the chip generation a board is built around.
type Family int

const (
	FamilyUnknown Family = iota
	Grayskull
	Wormhole
	Blackhole
)

func (f Family) String() string {
	switch f {
	case Grayskull:
		return "Grayskull"
	case Wormhole:
		return "Wormhole"
	case Blackhole:
		return "Blackhole"
	default:
		return "Unknown"
	}
}

// Board describes a board type and its fixed capabilities. Capabilities are
// an explicit per-type table, not probed at runtime: policy and reset
// planning switch on these flags.
type Board struct {
	// Name is the board type identifier used as bundle key, e.g. "NEBULA_X2".
	Name string
	// Family is the chip generation.
	Family Family
	// Paired is set for boards carrying a second chip that shares the
	// flash image of the first one (local/remote pair).
	Paired bool
	// AutoReset is set for boards whose PCI link can be reset in software
	// to activate new firmware. Boards without it need a host reboot.
	AutoReset bool
}

// boardTable lists the known board types.
var boardTable = map[string]Board{
	"E75":  {Name: "E75", Family: Grayskull},
	"E150": {Name: "E150", Family: Grayskull},
	"E300": {Name: "E300", Family: Grayskull},

	"NEBULA_X1": {Name: "NEBULA_X1", Family: Wormhole, AutoReset: true},
	"NEBULA_X2": {Name: "NEBULA_X2", Family: Wormhole, Paired: true, AutoReset: true},
	"GALAXY":    {Name: "GALAXY", Family: Wormhole, AutoReset: true},

	"P100-1":  {Name: "P100-1", Family: Blackhole, AutoReset: true},
	"P100A-1": {Name: "P100A-1", Family: Blackhole, AutoReset: true},
	"P150-1":  {Name: "P150-1", Family: Blackhole, AutoReset: true},
	"P150A-1": {Name: "P150A-1", Family: Blackhole, AutoReset: true},
	"P150C-1": {Name: "P150C-1", Family: Blackhole, AutoReset: true},
	"P300-1":  {Name: "P300-1", Family: Blackhole, Paired: true, AutoReset: true},
}

// LookupBoard resolves a board type identifier against the table of known
// board types.
func LookupBoard(name string) (Board, bool) {
	b, ok := boardTable[name]

	return b, ok
}
