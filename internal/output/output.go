// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package output provides interfaces and implementations for different
// output formats of the flashing tool.
package output

import "io"

// ContentType is an identifier for different kinds of formatted output.
type ContentType string

const (
	// TypeGeneral represents general text output.
	TypeGeneral ContentType = "general"

	// TypeStage represents a pipeline stage transition. Data is the
	// stage name, e.g. "FLASH".
	TypeStage ContentType = "stage"

	// TypeReport represents the final per-device report. Data is a Report.
	TypeReport ContentType = "report"

	// TypeVersion represents version information.
	TypeVersion ContentType = "version"
)

// Content is a structured data unit to be formatted and displayed.
type Content struct {
	// Type identifies the category of this content.
	Type ContentType

	// Data holds the actual content, a string or a Report.
	Data interface{}

	// IsError indicates whether this content represents an error or
	// a warning.
	IsError bool
}

// Report is the serializable form of a pipeline run's result.
type Report struct {
	Verdict string         `json:"verdict" yaml:"verdict"`
	Devices []DeviceReport `json:"devices" yaml:"devices"`
}

// DeviceReport is the serializable outcome of a single device.
type DeviceReport struct {
	Device string `json:"device" yaml:"device"`
	Board  string `json:"board" yaml:"board"`
	Action string `json:"action" yaml:"action"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Write  string `json:"write" yaml:"write"`
	Verify string `json:"verify" yaml:"verify"`
	Reset  string `json:"reset" yaml:"reset"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Formatter provides methods to format and output content in different styles.
type Formatter interface {
	// WriteContent formats and outputs a structured content object.
	WriteContent(content Content)

	// Write sends plain text to standard output as a convenience method.
	Write(text string)

	// WriteErr sends plain text to standard error as a convenience method.
	WriteErr(text string)
}

// Config contains the configuration options for output formatters.
type Config struct {
	// Stdout is the writer for standard output.
	Stdout io.Writer

	// Stderr is the writer for error output.
	Stderr io.Writer

	// Format selects the output style: "text" (default), "json" or "yaml".
	Format string

	// NoColor disables colored output in the text format.
	NoColor bool
}

// New creates a Formatter for the configured format. Unknown formats fall
// back to text.
func New(config Config) Formatter {
	switch config.Format {
	case "json":
		return newJSONFormatter(config)
	case "yaml":
		return newYAMLFormatter(config)
	default:
		return newTextFormatter(config)
	}
}
