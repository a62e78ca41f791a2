// Copyright 2026 Tenstorrent AI ULC
// Use of this source code is governed by an Apache-2.0
// license that can be found in the LICENSE file.

// Package fakes provides in-memory device implementations for tests of the
// flashing engine.
package fakes

import (
	"context"
	"time"

	"github.com/tenstorrent/tt-flash/pkg/device"
)

// FakeHandle is a lightweight in-memory implementation of device.Handle.
//
// Behavior:
//   - WriteRegion stores the data in Flash; ReadRegion serves it back,
//     padded with 0xFF beyond the written length.
//   - Errors can be injected via the *Err fields to drive error branches.
//   - ReadBack, when set, overrides what ReadRegion returns, to simulate a
//     corrupted write.
//   - CopyBlocks makes CopyToRemote block until its context expires, to
//     simulate a hung remote propagation.
//   - All hardware calls are counted for later inspection.
type FakeHandle struct {
	Desc device.Device

	Flash    []byte
	ReadBack []byte

	WriteErr  error
	ReadErr   error
	CopyErr   error
	ResetErr  error
	ReturnErr error // returned by WaitReappear

	CopyBlocks bool

	WriteCalls  int
	ReadCalls   int
	CopyCalls   int
	ResetCalls  int
	ReturnCalls int
}

func (f *FakeHandle) Device() device.Device {
	return f.Desc
}

func (f *FakeHandle) ReadRegion(_ context.Context, n int) ([]byte, error) {
	f.ReadCalls++

	if f.ReadErr != nil {
		return nil, f.ReadErr
	}

	src := f.Flash
	if f.ReadBack != nil {
		src = f.ReadBack
	}

	buf := make([]byte, n)
	copied := copy(buf, src)

	for i := copied; i < n; i++ {
		buf[i] = 0xFF
	}

	return buf, nil
}

func (f *FakeHandle) WriteRegion(_ context.Context, data []byte) error {
	f.WriteCalls++

	if f.WriteErr != nil {
		return f.WriteErr
	}

	f.Flash = append([]byte(nil), data...)

	return nil
}

func (f *FakeHandle) CopyToRemote(ctx context.Context) error {
	f.CopyCalls++

	if f.CopyBlocks {
		<-ctx.Done()

		return ctx.Err()
	}

	return f.CopyErr
}

func (f *FakeHandle) ResetLink(_ context.Context) error {
	f.ResetCalls++

	return f.ResetErr
}

func (f *FakeHandle) WaitReappear(_ context.Context, _ time.Duration) error {
	f.ReturnCalls++

	return f.ReturnErr
}

// FakeCatalog is an in-memory implementation of device.Catalog serving a
// fixed handle list, or an injected enumeration error.
type FakeCatalog struct {
	Handles []*FakeHandle
	Err     error
}

func (c *FakeCatalog) Enumerate(_ context.Context) ([]device.Handle, error) {
	if c.Err != nil {
		return nil, c.Err
	}

	handles := make([]device.Handle, len(c.Handles))
	for i, h := range c.Handles {
		handles[i] = h
	}

	return handles, nil
}
