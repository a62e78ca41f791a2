// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"github.com/tenstorrent/tt-flash/internal/output"
	"github.com/tenstorrent/tt-flash/pkg/flash"
)

// reportOf converts a pipeline result to its serializable report form.
func reportOf(res flash.Result) output.Report {
	report := output.Report{
		Verdict: res.Verdict.String(),
		Devices: make([]output.DeviceReport, 0, len(res.Outcomes)),
	}

	for _, o := range res.Outcomes {
		report.Devices = append(report.Devices, output.DeviceReport{
			Device: o.Device.String(),
			Board:  o.Device.Board.Name,
			Action: o.Decision.Action.String(),
			Reason: o.Decision.Reason.String(),
			Write:  o.Write.String(),
			Verify: o.Verify.String(),
			Reset:  o.Reset.String(),
			Detail: o.Detail,
			Note:   o.Decision.Note,
		})
	}

	return report
}
