// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// TextFormatter implements Formatter with human-readable text output:
// colored stage banners during the run and a per-device table at the end.
type TextFormatter struct {
	stdout io.Writer
	stderr io.Writer

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	blue   *color.Color
}

// newTextFormatter creates a new TextFormatter instance configured according
// to the provided Config. If config.Stdout or config.Stderr are nil, it
// defaults to os.Stdout and os.Stderr respectively.
func newTextFormatter(config Config) *TextFormatter {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}

	f := &TextFormatter{
		stdout: config.Stdout,
		stderr: config.Stderr,
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		blue:   color.New(color.FgBlue),
	}

	if config.NoColor {
		for _, c := range []*color.Color{f.green, f.red, f.yellow, f.blue} {
			c.DisableColor()
		}
	}

	return f
}

// WriteContent formats and outputs structured content.
func (f *TextFormatter) WriteContent(content Content) {
	writer := f.stdout
	if content.IsError {
		writer = f.stderr
	}

	switch content.Type {
	case TypeStage:
		f.writeStageTo(content, writer)
	case TypeReport:
		f.writeReportTo(content, writer)
	default:
		f.writeGeneralTo(content, writer)
	}
}

// Write sends text to standard output.
func (f *TextFormatter) Write(text string) {
	fmt.Fprintln(f.stdout, text)
}

// WriteErr sends text to standard error.
func (f *TextFormatter) WriteErr(text string) {
	fmt.Fprintf(f.stderr, "%s %s\n", f.yellow.Sprint("Warning:"), text)
}

func (f *TextFormatter) writeStageTo(content Content, writer io.Writer) {
	if stage, ok := content.Data.(string); ok {
		fmt.Fprintf(writer, "%s %s\n", f.green.Sprint("Stage:"), stage)

		return
	}

	f.writeGeneralTo(content, writer)
}

func (f *TextFormatter) writeReportTo(content Content, writer io.Writer) {
	report, ok := content.Data.(Report)
	if !ok {
		f.writeGeneralTo(content, writer)

		return
	}

	for _, dev := range report.Devices {
		fmt.Fprintf(writer, "  %s\n", f.blue.Sprint(dev.Device))

		if dev.Action == "skip" {
			fmt.Fprintf(writer, "    skipped: %s\n", dev.Reason)
		} else {
			fmt.Fprintf(writer, "    write: %s  verify: %s  reset: %s\n",
				f.status(dev.Write), f.status(dev.Verify), dev.Reset)
		}

		if dev.Detail != "" {
			fmt.Fprintf(writer, "    %s\n", dev.Detail)
		}

		if dev.Note != "" {
			fmt.Fprintf(writer, "    %s %s\n", f.yellow.Sprint("Note:"), dev.Note)
		}
	}

	if report.Verdict == "SUCCESS" {
		fmt.Fprintf(writer, "FLASH %s\n", f.green.Sprint(report.Verdict))
	} else {
		fmt.Fprintf(writer, "FLASH %s\n", f.red.Sprint(report.Verdict))
	}
}

// status colors terminal statuses: positive ones green, the rest red.
func (f *TextFormatter) status(s string) string {
	switch s {
	case "success":
		return f.green.Sprint(s)
	case "not-attempted":
		return s
	default:
		return f.red.Sprint(s)
	}
}

func (f *TextFormatter) writeGeneralTo(content Content, writer io.Writer) {
	prefix := ""
	if content.IsError {
		prefix = f.red.Sprint("Error:") + " "
	}

	switch data := content.Data.(type) {
	case string:
		fmt.Fprintf(writer, "%s%s\n", prefix, data)
	case []string:
		for _, line := range data {
			fmt.Fprintf(writer, "%s%s\n", prefix, line)
		}
	default:
		fmt.Fprintf(writer, "%s%v\n", prefix, data)
	}
}
