// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package output

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats output as YAML documents.
type YAMLFormatter struct {
	stdout io.Writer
	stderr io.Writer
}

// YAMLOutput is a struct for YAML formatted output.
type YAMLOutput struct {
	ContentType string      `yaml:"contentType"`
	Data        interface{} `yaml:"data"`
	Error       bool        `yaml:"error,omitempty"`
	Timestamp   string      `yaml:"timestamp"`
}

// newYAMLFormatter creates a new YAML formatter.
func newYAMLFormatter(config Config) *YAMLFormatter {
	if config.Stdout == nil {
		config.Stdout = os.Stdout
	}

	if config.Stderr == nil {
		config.Stderr = os.Stderr
	}

	return &YAMLFormatter{
		stdout: config.Stdout,
		stderr: config.Stderr,
	}
}

// WriteContent formats and outputs structured content.
func (f *YAMLFormatter) WriteContent(content Content) {
	output := YAMLOutput{
		ContentType: string(content.Type),
		Data:        content.Data,
		Error:       content.IsError,
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	writer := f.stdout
	if content.IsError {
		writer = f.stderr
	}

	bytes, err := yaml.Marshal(output)
	if err != nil {
		log.Printf("Error marshaling YAML: %v", err)

		return
	}

	fmt.Fprintf(writer, "---\n%s", string(bytes))
}

// Write sends text to standard output.
func (f *YAMLFormatter) Write(text string) {
	f.WriteContent(Content{
		Type: TypeGeneral,
		Data: text,
	})
}

// WriteErr sends text to standard error.
func (f *YAMLFormatter) WriteErr(text string) {
	f.WriteContent(Content{
		Type:    TypeGeneral,
		Data:    text,
		IsError: true,
	})
}
