// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package flash

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/tenstorrent/tt-flash/internal/fsm"
	"github.com/tenstorrent/tt-flash/internal/output"
	"github.com/tenstorrent/tt-flash/internal/sysconfig"
	"github.com/tenstorrent/tt-flash/pkg/bundle"
	"github.com/tenstorrent/tt-flash/pkg/device"
)

// Options are the operator-facing switches of a run.
type Options struct {
	// Force schedules updates even for devices that are up to date.
	Force bool
	// SkipMissingFW skips boards without a bundle entry instead of
	// aborting the run.
	SkipMissingFW bool
	// NoReset suppresses all automatic resets after flashing.
	NoReset bool
	// DryRun stops after the decision stage without any write.
	DryRun bool
}

// Pipeline drives one flashing run over all detected devices. The stages
// run strictly forward; once the first write has started, errors no longer
// abort the run but degrade it to a partial failure.
type Pipeline struct {
	Catalog device.Catalog
	Bundle  *bundle.Bundle
	Opts    Options

	// SysConfigPath is an explicit system configuration path. Empty means
	// the default locations are searched.
	SysConfigPath string

	// Config bypasses sys-config loading when set before Run.
	Config *sysconfig.Config

	// Progress receives stage transitions and warnings. May be nil.
	Progress output.Formatter

	// RemoteCopyWait and ResetWait override the hardware wait bounds,
	// mainly for tests. Zero selects the defaults.
	RemoteCopyWait time.Duration
	ResetWait      time.Duration

	// cycler is replaceable for tests.
	cycler chassisCycler
}

// pipelineArgs is the state carried between the pipeline stages.
type pipelineArgs struct {
	p *Pipeline

	handles  []device.Handle
	outcomes []Outcome

	// flashed flips once the first write is attempted. It is the point
	// of no return for the abort semantics.
	flashed bool
}

// Run executes the pipeline. The returned result is valid even when an
// error is returned: an error before any write yields an aborted result
// with zero writes, a failure afterwards a partial one.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	args, err := fsm.Run(ctx, pipelineArgs{p: p}, setup)

	res := Result{Outcomes: args.outcomes}

	if err != nil {
		if args.flashed {
			res.Verdict = VerdictPartialFailure
		} else {
			res.Verdict = VerdictAborted
		}

		return res, err
	}

	// A dry run attempts nothing, so there is nothing to fail.
	if p.Opts.DryRun {
		return res, nil
	}

	res.Verdict = verdict(args.outcomes)

	return res, nil
}

// setup is the first pipeline stage.
//
// It resolves the optional system configuration. A missing configuration is
// a warning, not an error; it only disables chassis reset coordination.
func setup(_ context.Context, args pipelineArgs) (pipelineArgs, fsm.State[pipelineArgs], error) {
	args.p.stage("SETUP")

	if args.p.Config == nil {
		cfg, err := sysconfig.Load(args.p.SysConfigPath)
		if err != nil {
			return args, nil, err
		}

		if cfg == nil {
			args.p.warn("no system configuration found, chassis reset coordination disabled")
		}

		args.p.Config = cfg
	}

	return args, detect, nil
}

// detect is a pipeline stage.
//
// It enumerates the devices present in the machine. An enumeration failure
// aborts the run; no device has been touched yet. Zero devices end the run
// successfully with an empty result.
func detect(ctx context.Context, args pipelineArgs) (pipelineArgs, fsm.State[pipelineArgs], error) {
	args.p.stage("DETECT")

	handles, err := args.p.Catalog.Enumerate(ctx)
	if err != nil {
		return args, nil, err
	}

	args.handles = handles

	if len(handles) == 0 {
		args.p.warn("no devices detected")

		return args, nil, nil
	}

	for _, h := range handles {
		log.Printf("Detected %s, firmware %s", h.Device(), h.Device().Current)
	}

	return args, decide, nil
}

// decide is a pipeline stage.
//
// It runs the update policy over all devices. This stage is read-only; a
// policy error aborts the run with zero writes.
func decide(_ context.Context, args pipelineArgs) (pipelineArgs, fsm.State[pipelineArgs], error) {
	args.p.stage("VERIFY")

	args.outcomes = make([]Outcome, 0, len(args.handles))

	for _, h := range args.handles {
		dev := h.Device()

		d, err := Decide(dev, args.p.Bundle, args.p.Opts.Force, args.p.Opts.SkipMissingFW)
		if err != nil {
			return args, nil, err
		}

		if d.Note != "" {
			args.p.warn(dev.String() + ": " + d.Note)
		}

		args.outcomes = append(args.outcomes, Outcome{Device: dev, Decision: d})
	}

	if args.p.Opts.DryRun {
		return args, nil, nil
	}

	return args, apply, nil
}

// apply is a pipeline stage.
//
// It writes and verifies firmware per scheduled device in detection order.
// Failures are isolated to the affected device; the stage always visits
// every device.
func apply(ctx context.Context, args pipelineArgs) (pipelineArgs, fsm.State[pipelineArgs], error) {
	args.p.stage("FLASH")

	wv := WriteVerifier{RemoteCopyWait: args.p.RemoteCopyWait}

	for i := range args.outcomes {
		o := &args.outcomes[i]

		if o.Decision.Action != ActionUpdate {
			continue
		}

		if err := ctx.Err(); err != nil {
			return args, nil, err
		}

		entry, ok := args.p.Bundle.Entry(o.Device.Board.Name)
		if !ok {
			// Decide guarantees an entry for scheduled devices.
			o.Write = WriteFailed
			o.Detail = "no bundle entry"

			continue
		}

		log.Printf("Flashing %s with %s", o.Device, entry.Version)

		args.flashed = true
		o.Write, o.Verify, o.Detail = wv.Apply(ctx, args.handles[i], entry)

		if errors.Is(ctx.Err(), context.Canceled) {
			return args, nil, ctx.Err()
		}
	}

	return args, reset, nil
}

// reset is the last acting pipeline stage.
//
// It activates the written firmware where possible. With NoReset set the
// planner still runs to mark every written device as requiring a manual
// reset, without any hardware call.
func reset(ctx context.Context, args pipelineArgs) (pipelineArgs, fsm.State[pipelineArgs], error) {
	args.p.stage("RESET")

	planner := ResetPlanner{
		Config:  args.p.Config,
		NoReset: args.p.Opts.NoReset,
		Wait:    args.p.ResetWait,
		cycler:  args.p.cycler,
	}

	planner.PlanAndExecute(ctx, args.handles, args.outcomes)

	return args, nil, nil
}

func (p *Pipeline) stage(name string) {
	if p.Progress == nil {
		return
	}

	p.Progress.WriteContent(output.Content{Type: output.TypeStage, Data: name})
}

func (p *Pipeline) warn(text string) {
	if p.Progress == nil {
		return
	}

	p.Progress.WriteErr(text)
}
