// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// JSONFormatter formats output as a stream of JSON objects, one per content
// unit. Suited for machine consumption of the flashing progress and report.
type JSONFormatter struct {
	stdout io.Writer
	stderr io.Writer
}

// JSONOutput is a struct for JSON formatted output.
type JSONOutput struct {
	ContentType string      `json:"contentType"`
	Data        interface{} `json:"data"`
	Error       bool        `json:"error,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

// newJSONFormatter creates a new JSON formatter.
func newJSONFormatter(config Config) *JSONFormatter {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}

	return &JSONFormatter{
		stdout: config.Stdout,
		stderr: config.Stderr,
	}
}

// WriteContent formats and outputs structured content.
func (f *JSONFormatter) WriteContent(content Content) {
	output := JSONOutput{
		ContentType: string(content.Type),
		Data:        content.Data,
		Error:       content.IsError,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	writer := f.stdout
	if content.IsError {
		writer = f.stderr
	}

	bytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Printf("Error marshaling JSON: %v", err)

		return
	}

	fmt.Fprintln(writer, string(bytes))
}

// Write sends text to standard output.
func (f *JSONFormatter) Write(text string) {
	f.WriteContent(Content{
		Type: TypeGeneral,
		Data: text,
	})
}

// WriteErr sends text to standard error.
func (f *JSONFormatter) WriteErr(text string) {
	f.WriteContent(Content{
		Type:    TypeGeneral,
		Data:    text,
		IsError: true,
	})
}
