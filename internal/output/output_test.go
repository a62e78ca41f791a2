// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format string
		want   string
	}{
		{name: "default is text", format: "", want: "*output.TextFormatter"},
		{name: "text", format: "text", want: "*output.TextFormatter"},
		{name: "json", format: "json", want: "*output.JSONFormatter"},
		{name: "yaml", format: "yaml", want: "*output.YAMLFormatter"},
		{name: "unknown falls back to text", format: "xml", want: "*output.TextFormatter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(Config{Format: tt.format})

			var got string
			switch f.(type) {
			case *TextFormatter:
				got = "*output.TextFormatter"
			case *JSONFormatter:
				got = "*output.JSONFormatter"
			case *YAMLFormatter:
				got = "*output.YAMLFormatter"
			}

			if got != tt.want {
				t.Errorf("New(%q) = %s, want %s", tt.format, got, tt.want)
			}
		})
	}
}

func TestTextFormatterStage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	f := newTextFormatter(Config{Stdout: &stdout, Stderr: &stderr, NoColor: true})
	f.WriteContent(Content{Type: TypeStage, Data: "FLASH"})

	want := "Stage: FLASH\n"
	if got := stdout.String(); got != want {
		t.Errorf("stage output = %q, want %q", got, want)
	}

	if stderr.Len() != 0 {
		t.Errorf("unexpected stderr output: %q", stderr.String())
	}
}

func TestTextFormatterReport(t *testing.T) {
	var stdout bytes.Buffer

	f := newTextFormatter(Config{Stdout: &stdout, NoColor: true})
	f.WriteContent(Content{Type: TypeReport, Data: Report{
		Verdict: "PARTIAL_FAILURE",
		Devices: []DeviceReport{
			{
				Device: "Wormhole[0] NEBULA_X2",
				Board:  "NEBULA_X2",
				Action: "flash",
				Write:  "success",
				Verify: "mismatch",
				Reset:  "manual-required",
				Detail: "first mismatch at offset 0x40, 12 bytes differ",
			},
			{
				Device: "Grayskull[1] E150",
				Board:  "E150",
				Action: "skip",
				Reason: "already up to date",
				Write:  "not-attempted",
				Verify: "not-attempted",
				Reset:  "not-required",
				Note:   "image checksum differs from installed firmware",
			},
		},
	}})

	got := stdout.String()

	wantLines := []string{
		"  Wormhole[0] NEBULA_X2",
		"    write: success  verify: mismatch  reset: manual-required",
		"    first mismatch at offset 0x40, 12 bytes differ",
		"  Grayskull[1] E150",
		"    skipped: already up to date",
		"    Note: image checksum differs from installed firmware",
		"FLASH PARTIAL_FAILURE",
	}

	for _, line := range wantLines {
		if !strings.Contains(got, line) {
			t.Errorf("report output missing line %q\ngot:\n%s", line, got)
		}
	}
}

func TestTextFormatterErrorsToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer

	f := newTextFormatter(Config{Stdout: &stdout, Stderr: &stderr, NoColor: true})

	f.WriteContent(Content{Type: TypeGeneral, Data: "bundle unreadable", IsError: true})
	f.WriteErr("no system config found")

	if stdout.Len() != 0 {
		t.Errorf("unexpected stdout output: %q", stdout.String())
	}

	got := stderr.String()
	if !strings.Contains(got, "Error: bundle unreadable") {
		t.Errorf("error output = %q, want Error prefix", got)
	}

	if !strings.Contains(got, "Warning: no system config found") {
		t.Errorf("warning output = %q, want Warning prefix", got)
	}
}

func TestJSONFormatter(t *testing.T) {
	var stdout, stderr bytes.Buffer

	f := newJSONFormatter(Config{Stdout: &stdout, Stderr: &stderr})
	f.WriteContent(Content{Type: TypeStage, Data: "VERIFY"})

	var out JSONOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if out.ContentType != string(TypeStage) {
		t.Errorf("contentType = %q, want %q", out.ContentType, TypeStage)
	}

	if out.Data != "VERIFY" {
		t.Errorf("data = %v, want VERIFY", out.Data)
	}

	if out.Timestamp == "" {
		t.Error("timestamp is empty")
	}

	f.WriteErr("degraded link")

	var errOut JSONOutput
	if err := json.Unmarshal(stderr.Bytes(), &errOut); err != nil {
		t.Fatalf("error output is not valid JSON: %v", err)
	}

	if !errOut.Error {
		t.Error("error flag not set on WriteErr output")
	}
}

func TestYAMLFormatter(t *testing.T) {
	var stdout bytes.Buffer

	f := newYAMLFormatter(Config{Stdout: &stdout})
	f.Write("flashing 2 devices")

	got := stdout.String()
	if !strings.HasPrefix(got, "---\n") {
		t.Errorf("output does not start with document separator: %q", got)
	}

	var out YAMLOutput
	if err := yaml.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}

	if out.ContentType != string(TypeGeneral) {
		t.Errorf("contentType = %q, want %q", out.ContentType, TypeGeneral)
	}

	if out.Data != "flashing 2 devices" {
		t.Errorf("data = %v, want flashing 2 devices", out.Data)
	}
}
