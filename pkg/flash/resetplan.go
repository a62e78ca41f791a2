// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package flash

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bougou/go-ipmi"
	"github.com/tenstorrent/tt-flash/internal/sysconfig"
	"github.com/tenstorrent/tt-flash/pkg/device"
)

const (
	// defaultResetWait bounds the poll for a device to reappear on the
	// bus after a link reset.
	defaultResetWait = 60 * time.Second

	defaultBMCPort    = 623
	defaultBMCTimeout = 20 * time.Second
	bmcRetries        = 3
)

// chassisCycler abstracts the BMC power cycle so planner tests do not need
// a reachable BMC.
type chassisCycler interface {
	PowerCycle(ctx context.Context, bmc sysconfig.BMC) error
}

// ipmiCycler power-cycles a chassis through its BMC over IPMI.
type ipmiCycler struct{}

func (ipmiCycler) PowerCycle(ctx context.Context, bmc sysconfig.BMC) error {
	port := bmc.Port
	if port == 0 {
		port = defaultBMCPort
	}

	client, err := ipmi.NewClient(bmc.Host, port, bmc.User, bmc.Password)
	if err != nil {
		return fmt.Errorf("create IPMI client for %s: %v", bmc.Host, err)
	}

	client.WithTimeout(defaultBMCTimeout)
	client.WithRetry(bmcRetries, time.Second)

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to BMC %s:%d: %v", bmc.Host, port, err)
	}

	defer func() {
		if err := client.Close(ctx); err != nil {
			log.Printf("Closing IPMI connection to %s: %v", bmc.Host, err)
		}
	}()

	if _, err := client.ChassisControl(ctx, ipmi.ChassisControlPowerCycle); err != nil {
		return fmt.Errorf("chassis power cycle via %s: %v", bmc.Host, err)
	}

	return nil
}

// ResetPlanner decides and executes how freshly written firmware gets
// activated. Devices covered by a chassis entry in the system configuration
// are activated by power-cycling the chassis through its BMC; auto-resettable
// devices outside any chassis get an in-band link reset; everything else is
// left to the operator.
type ResetPlanner struct {
	// Config is the optional system configuration. Nil disables chassis
	// coordination and allows link resets on every interface.
	Config *sysconfig.Config

	// NoReset reports every written device as requiring a manual reset
	// and guarantees zero reset hardware calls.
	NoReset bool

	// Wait bounds the reappear poll after a link reset. Zero selects the
	// default.
	Wait time.Duration

	// cycler is replaceable for tests.
	cycler chassisCycler
}

// PlanAndExecute sets the Reset status on every outcome. handles and
// outcomes are parallel slices in detection order. A reset failure never
// rolls back the written image.
func (p *ResetPlanner) PlanAndExecute(ctx context.Context, handles []device.Handle, outcomes []Outcome) {
	cycler := p.cycler
	if cycler == nil {
		cycler = ipmiCycler{}
	}

	// One power cycle per chassis covers all its devices.
	cycled := make(map[string]ResetStatus)

	for i := range outcomes {
		o := &outcomes[i]

		if o.Decision.Action != ActionUpdate || o.Write != WriteSuccess {
			continue
		}

		if p.NoReset {
			o.Reset = ResetManualRequired

			continue
		}

		// An image that failed verification is never activated.
		if o.Verify != VerifySuccess {
			o.Reset = ResetManualRequired

			continue
		}

		if o.Device.Reset != device.ResetAuto {
			o.Reset = ResetManualRequired
			appendDetail(o, "reboot the host to activate the new firmware")

			continue
		}

		if entry := p.Config.Chassis(o.Device.PCIIndex); entry != nil {
			status, done := cycled[entry.Name]
			if !done {
				status = p.cycleChassis(ctx, cycler, entry, o)
				cycled[entry.Name] = status
			}

			o.Reset = status

			continue
		}

		if !p.Config.AllowsLinkReset(o.Device.PCIIndex) {
			o.Reset = ResetManualRequired
			appendDetail(o, "link reset not permitted by sys-config")

			continue
		}

		p.linkReset(ctx, handles[i], o)
	}

	mirrorRemotes(outcomes)
}

// cycleChassis power-cycles one chassis. The error detail lands on the
// device that triggered the cycle; devices sharing the chassis get the
// same status.
func (p *ResetPlanner) cycleChassis(ctx context.Context, cycler chassisCycler, entry *sysconfig.ChassisEntry, o *Outcome) ResetStatus {
	log.Printf("Power cycling chassis %q via BMC %s", entry.Name, entry.BMC.Host)

	if err := cycler.PowerCycle(ctx, entry.BMC); err != nil {
		appendDetail(o, fmt.Sprintf("chassis %q: %v", entry.Name, err))

		return ResetAutoFailed
	}

	return ResetAutoCompleted
}

// linkReset issues an in-band link reset and waits for the device to come
// back. Cancellation and timeout both leave the device auto-failed.
func (p *ResetPlanner) linkReset(ctx context.Context, h device.Handle, o *Outcome) {
	wait := p.Wait
	if wait <= 0 {
		wait = defaultResetWait
	}

	log.Printf("Link reset for %s", o.Device)

	if err := h.ResetLink(ctx); err != nil {
		o.Reset = ResetAutoFailed
		appendDetail(o, fmt.Sprintf("link reset: %v", err))

		return
	}

	if err := h.WaitReappear(ctx, wait); err != nil {
		o.Reset = ResetAutoFailed
		appendDetail(o, fmt.Sprintf("device did not reappear after reset: %v", err))

		return
	}

	o.Reset = ResetAutoCompleted
}

// mirrorRemotes copies the reset status of a flashed local chip to its
// remote counterpart. Remotes are never reset on their own; they ride along
// with whatever happened to the local chip.
func mirrorRemotes(outcomes []Outcome) {
	byPCI := make(map[int]*Outcome, len(outcomes))
	for i := range outcomes {
		byPCI[outcomes[i].Device.PCIIndex] = &outcomes[i]
	}

	for i := range outcomes {
		o := &outcomes[i]
		if o.Device.Topology.Kind != device.RemoteOf {
			continue
		}

		local, ok := byPCI[o.Device.Topology.Peer]
		if !ok || local.Decision.Action != ActionUpdate {
			continue
		}

		o.Reset = local.Reset
	}
}

func appendDetail(o *Outcome, detail string) {
	if o.Detail == "" {
		o.Detail = detail

		return
	}

	o.Detail += "; " + detail
}
