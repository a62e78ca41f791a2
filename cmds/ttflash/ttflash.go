// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// ttflash updates the firmware of Tenstorrent accelerator cards from a
// firmware bundle file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/tenstorrent/tt-flash/internal/buildinfo"
	"github.com/tenstorrent/tt-flash/internal/output"
	"github.com/tenstorrent/tt-flash/pkg/bundle"
	"github.com/tenstorrent/tt-flash/pkg/device"
	"github.com/tenstorrent/tt-flash/pkg/flash"

	// Register the emulated device backend.
	_ "github.com/tenstorrent/tt-flash/pkg/device/emulated"
)

const usageAbstract = `ttflash - Firmware flashing utility for Tenstorrent accelerator cards.
`
const usageSynopsis = `
SYNOPSIS:
	ttflash [options] flash --fw-tar PATH [--sys-config PATH] [--skip-missing-fw] [--force] [--no-reset]
	ttflash [options] verify --fw-tar PATH [--sys-config PATH] [--skip-missing-fw]
	ttflash version

`
const usageDescription = `
The flash command updates every detected device whose firmware is older than
the bundled one, verifies the written images and activates them where the
hardware allows an automatic reset.

The verify command makes the same per-device decisions without writing
anything.

Invoking ttflash without a command behaves like the flash command.

`

const (
	fwTarInfo       = `Path to the firmware bundle (tar archive)`
	sysConfigInfo   = `Path to the system configuration, default is to search the well-known locations`
	skipMissingInfo = `Skip boards the bundle has no firmware for instead of aborting`
	forceInfo       = `Update devices even if their firmware is up to date`
	noResetInfo     = `Do not reset any device after flashing`
	backendInfo     = `Device backend to use, defaults to the only one linked in`
	outputInfo      = `Output format, text|json|yaml, default is text`
	noColorInfo     = `Disable colored output`
)

func newApp(stdin io.Reader, stdout, stderr io.Writer, exitFunc func(int), args []string) *application {
	var app application

	app.stdout = stdout
	app.stderr = stderr
	app.stdin = stdin
	app.exitFunc = exitFunc

	fs := flag.NewFlagSet(args[0], flag.ExitOnError)
	fs.SetOutput(stderr)

	app.printFlagDefaults = func() {
		fmt.Fprint(stderr, "OPTIONS:\n")
		fs.PrintDefaults()
	}
	fs.Usage = func() {
		fmt.Fprint(stderr, usageAbstract, usageSynopsis, usageDescription)
		app.printFlagDefaults()
	}
	// Flags
	fs.StringVar(&app.outputFormat, "f", "", outputInfo)
	fs.BoolVar(&app.noColor, "no-color", false, noColorInfo)
	fs.StringVar(&app.backend, "backend", "", backendInfo)
	// The run flags also live on the global set so that an invocation
	// without a command keeps working, like the original tool.
	app.registerRunFlags(fs, true)

	//nolint:errcheck // flag.Parse always returns no error because of flag.ExitOnError
	fs.Parse(args[1:])
	app.args = fs.Args()

	// Setup output formatter
	app.formatter = output.New(output.Config{
		Stdout:  stdout,
		Stderr:  stderr,
		Format:  app.outputFormat,
		NoColor: app.noColor,
	})

	return &app
}

type application struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	exitFunc func(int)

	// flags
	outputFormat      string
	noColor           bool
	backend           string
	fwTar             string
	sysConfig         string
	skipMissing       bool
	force             bool
	noReset           bool
	args              []string
	printFlagDefaults func()

	formatter output.Formatter
}

// registerRunFlags binds the flags of the flash and verify commands to the
// application. withWrite adds the flags only meaningful when flashing.
func (app *application) registerRunFlags(fs *flag.FlagSet, withWrite bool) {
	fs.StringVar(&app.fwTar, "fw-tar", "", fwTarInfo)
	fs.StringVar(&app.sysConfig, "sys-config", "", sysConfigInfo)
	fs.BoolVar(&app.skipMissing, "skip-missing-fw", false, skipMissingInfo)

	if withWrite {
		fs.BoolVar(&app.force, "force", false, forceInfo)
		fs.BoolVar(&app.noReset, "no-reset", false, noResetInfo)
	}
}

var errInvalidCmdline = fmt.Errorf("invalid command line")

// start is the entry point of the application.
func (app *application) start() {
	log.SetOutput(app.stderr)

	cmd := "flash"

	if len(app.args) > 0 {
		switch app.args[0] {
		case "version":
			app.printVersion()
			app.exit(nil)
		case "flash", "verify":
			cmd = app.args[0]
			app.parseCmdFlags(cmd, app.args[1:])
		default:
			app.exit(fmt.Errorf("%w: unknown command %q", errInvalidCmdline, app.args[0]))
		}
	}

	app.exit(app.run(cmd))
}

// parseCmdFlags parses the flags following an explicit command word.
func (app *application) parseCmdFlags(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.SetOutput(app.stderr)
	fs.Usage = func() {
		fmt.Fprint(app.stderr, usageSynopsis)
		fmt.Fprint(app.stderr, "OPTIONS:\n")
		fs.PrintDefaults()
	}

	app.registerRunFlags(fs, cmd == "flash")

	//nolint:errcheck // flag.Parse always returns no error because of flag.ExitOnError
	fs.Parse(args)

	if len(fs.Args()) > 0 {
		app.exit(fmt.Errorf("%w: unexpected argument %q", errInvalidCmdline, fs.Args()[0]))
	}
}

// run executes the flash or verify command over all detected devices.
func (app *application) run(cmd string) error {
	if app.fwTar == "" {
		return fmt.Errorf("%w: --fw-tar is required", errInvalidCmdline)
	}

	bdl, err := bundle.Parse(app.fwTar)
	if err != nil {
		return err
	}

	catalog, err := device.NewCatalog(app.backend)
	if err != nil {
		return err
	}

	pipeline := &flash.Pipeline{
		Catalog:       catalog,
		Bundle:        bdl,
		SysConfigPath: app.sysConfig,
		Progress:      app.formatter,
		Opts: flash.Options{
			Force:         app.force,
			SkipMissingFW: app.skipMissing,
			NoReset:       app.noReset,
			DryRun:        cmd == "verify",
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, runErr := pipeline.Run(ctx)

	app.formatter.WriteContent(output.Content{
		Type: output.TypeReport,
		Data: reportOf(res),
	})

	if runErr != nil {
		return runErr
	}

	if res.Verdict != flash.VerdictSuccess {
		return fmt.Errorf("run finished with %s", res.Verdict)
	}

	return nil
}

// exit terminates the application. If the provided error is not nil, it is
// printed to the standard error output.
func (app *application) exit(err error) {
	if err == nil {
		app.exitFunc(0)
	}

	if err != nil {
		log.Print(err)
	}

	if errors.Is(err, errInvalidCmdline) {
		fmt.Fprint(app.stderr, usageSynopsis)
		app.printFlagDefaults()
	}

	app.exitFunc(1)
}

func (app *application) printVersion() {
	app.formatter.WriteContent(output.Content{
		Type: output.TypeVersion,
		Data: "Tenstorrent Firmware Flashing Utility\n" + buildinfo.VersionString(),
	})
}

func main() {
	newApp(os.Stdin, os.Stdout, os.Stderr, os.Exit, os.Args).start()
}
