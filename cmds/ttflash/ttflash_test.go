// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tenstorrent/tt-flash/pkg/device"
	"github.com/tenstorrent/tt-flash/pkg/device/emulated"
	"github.com/tenstorrent/tt-flash/pkg/flash"
)

func TestNewAppFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantArgs []string
		want     application
	}{
		{
			name:     "run flags without a command",
			args:     []string{"ttflash", "--fw-tar", "fw.tar", "--force"},
			wantArgs: []string{},
			want:     application{fwTar: "fw.tar", force: true},
		},
		{
			name:     "global flags before the command",
			args:     []string{"ttflash", "-f", "json", "--no-color", "flash"},
			wantArgs: []string{"flash"},
			want:     application{outputFormat: "json", noColor: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(nil, os.Stdout, os.Stderr, func(int) {}, tt.args)

			if app.fwTar != tt.want.fwTar ||
				app.force != tt.want.force ||
				app.outputFormat != tt.want.outputFormat ||
				app.noColor != tt.want.noColor {
				t.Errorf("parsed flags = %+v", app)
			}

			if len(app.args) != len(tt.wantArgs) {
				t.Errorf("remaining args = %v, want %v", app.args, tt.wantArgs)
			}
		})
	}
}

func TestReportOf(t *testing.T) {
	board, _ := device.LookupBoard("NEBULA_X1")

	res := flash.Result{
		Verdict: flash.VerdictSuccess,
		Outcomes: []flash.Outcome{
			{
				Device:   device.Device{PCIIndex: 0, Board: board},
				Decision: flash.Decision{Action: flash.ActionUpdate},
				Write:    flash.WriteSuccess,
				Verify:   flash.VerifySuccess,
				Reset:    flash.ResetAutoCompleted,
			},
		},
	}

	report := reportOf(res)

	if report.Verdict != "SUCCESS" {
		t.Errorf("verdict = %q, want SUCCESS", report.Verdict)
	}

	if len(report.Devices) != 1 {
		t.Fatalf("got %d device reports, want 1", len(report.Devices))
	}

	dev := report.Devices[0]
	if dev.Board != "NEBULA_X1" || dev.Action != "flash" || dev.Write != "success" {
		t.Errorf("device report = %+v", dev)
	}
}

// writeBundle creates a firmware bundle file holding one NEBULA_X1 image.
func writeBundle(t *testing.T, dir string, payload []byte) string {
	t.Helper()

	sum := sha256.Sum256(payload)
	manifest := fmt.Sprintf(`{
		"version": "1.0.0",
		"bundle_version": {"fwId": 80, "releaseId": 18, "patch": 2, "debug": 0},
		"boards": [
			{"name": "NEBULA_X1", "image": "NEBULA_X1/image.bin", "checksum": %q}
		]
	}`, hex.EncodeToString(sum[:]))

	var buf bytes.Buffer

	tw := tar.NewWriter(&buf)
	for name, content := range map[string][]byte{
		"manifest.json":       []byte(manifest),
		"NEBULA_X1/image.bin": payload,
	} {
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}); err != nil {
			t.Fatalf("writing tar header: %v", err)
		}

		if _, err := tw.Write(content); err != nil {
			t.Fatalf("writing tar member: %v", err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}

	path := filepath.Join(dir, "fw.tar")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writing bundle: %v", err)
	}

	return path
}

func TestFlashEndToEnd(t *testing.T) {
	dir := t.TempDir()

	payload := []byte("brand new firmware image")
	fwTar := writeBundle(t, dir, payload)

	// One emulated device on outdated firmware.
	imagePath := filepath.Join(dir, "dev0.bin")
	if err := os.WriteFile(imagePath, []byte("old firmware"), 0o644); err != nil {
		t.Fatalf("writing device image: %v", err)
	}

	spec := `[{"pci_index": 0, "board": "NEBULA_X1", "version": "80.17.0.0", "image": "dev0.bin"}]`
	if err := os.WriteFile(filepath.Join(dir, "devices.json"), []byte(spec), 0o644); err != nil {
		t.Fatalf("writing device spec: %v", err)
	}

	t.Setenv(emulated.EnvDeviceDir, dir)

	sysConfig := filepath.Join(dir, "config.json")
	if err := os.WriteFile(sysConfig, []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing sys-config: %v", err)
	}

	var (
		stdout, stderr bytes.Buffer
		codes          []int
	)

	app := newApp(nil, &stdout, &stderr, func(code int) { codes = append(codes, code) }, []string{
		"ttflash", "--no-color",
		"flash", "--fw-tar", fwTar, "--sys-config", sysConfig,
	})
	app.backend = "emulated"
	app.start()

	if len(codes) == 0 || codes[0] != 0 {
		t.Fatalf("exit codes = %v, want first exit 0\nstdout:\n%s\nstderr:\n%s",
			codes, stdout.String(), stderr.String())
	}

	if !strings.Contains(stdout.String(), "FLASH SUCCESS") {
		t.Errorf("stdout missing success verdict:\n%s", stdout.String())
	}

	flashed, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatalf("reading device image: %v", err)
	}

	if !bytes.Equal(flashed, payload) {
		t.Errorf("device image not updated, got %q", flashed)
	}
}

func TestVerifyEndToEnd(t *testing.T) {
	dir := t.TempDir()

	payload := []byte("brand new firmware image")
	fwTar := writeBundle(t, dir, payload)

	imagePath := filepath.Join(dir, "dev0.bin")
	old := []byte("old firmware")

	if err := os.WriteFile(imagePath, old, 0o644); err != nil {
		t.Fatalf("writing device image: %v", err)
	}

	spec := `[{"pci_index": 0, "board": "NEBULA_X1", "version": "80.17.0.0", "image": "dev0.bin"}]`
	if err := os.WriteFile(filepath.Join(dir, "devices.json"), []byte(spec), 0o644); err != nil {
		t.Fatalf("writing device spec: %v", err)
	}

	t.Setenv(emulated.EnvDeviceDir, dir)

	sysConfig := filepath.Join(dir, "config.json")
	if err := os.WriteFile(sysConfig, []byte("{}"), 0o644); err != nil {
		t.Fatalf("writing sys-config: %v", err)
	}

	var (
		stdout, stderr bytes.Buffer
		codes          []int
	)

	app := newApp(nil, &stdout, &stderr, func(code int) { codes = append(codes, code) }, []string{
		"ttflash", "--no-color",
		"verify", "--fw-tar", fwTar, "--sys-config", sysConfig,
	})
	app.backend = "emulated"
	app.start()

	if len(codes) == 0 || codes[0] != 0 {
		t.Fatalf("exit codes = %v, want first exit 0\nstderr:\n%s", codes, stderr.String())
	}

	flashed, err := os.ReadFile(imagePath)
	if err != nil {
		t.Fatalf("reading device image: %v", err)
	}

	if !bytes.Equal(flashed, old) {
		t.Errorf("verify modified the device image, got %q", flashed)
	}
}
