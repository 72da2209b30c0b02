// go-tmr
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tmr.
//
// go-tmr is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tmr is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tmr; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package session

import (
	"context"
	"fmt"
	"time"

	tmr "github.com/ZaparooProject/go-tmr"
	"github.com/ZaparooProject/go-tmr/detection"
	"github.com/ZaparooProject/go-tmr/transport/uart"
)

// TMRReader adapts a tmr.Device to Reader
type TMRReader struct {
	device *tmr.Device
}

// NewTMRReader wraps an initialized device
func NewTMRReader(device *tmr.Device) *TMRReader {
	return &TMRReader{device: device}
}

// DialTMR opens the Mercury module at uri over a UART at baud. An empty
// path ("tmr://") auto-detects a USB serial bridge.
func DialTMR(ctx context.Context, uri string, baud int, opts ...tmr.ConnectOption) (*TMRReader, error) {
	path, err := tmr.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	openUART := func(port string) (tmr.Transport, error) {
		t, err := uart.New(port, uart.WithBaudRate(baud))
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	connectOpts := []tmr.ConnectOption{
		tmr.WithTransportFactory(openUART),
		tmr.WithTransportFromDeviceFactory(func(d detection.DeviceInfo) (tmr.Transport, error) {
			return openUART(d.Path)
		}),
	}
	device, err := tmr.ConnectDeviceContext(ctx, path, append(connectOpts, opts...)...)
	if err != nil {
		return nil, err
	}
	return NewTMRReader(device), nil
}

// TMROpener returns an OpenFunc that dials Mercury modules with DialTMR
func TMROpener(baud int, opts ...tmr.ConnectOption) OpenFunc {
	return func(ctx context.Context, uri string) (Reader, error) {
		r, err := DialTMR(ctx, uri, baud, opts...)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}

// Device returns the wrapped device
func (r *TMRReader) Device() *tmr.Device {
	return r.device
}

// SetRegion sets the Region of Operation
func (r *TMRReader) SetRegion(ctx context.Context, code string) error {
	return r.device.SetRegion(ctx, code)
}

// SetReadPlan sets the antennas and tag protocol
func (r *TMRReader) SetReadPlan(ctx context.Context, antennas []int, protocol string) error {
	return r.device.SetReadPlan(ctx, antennas, protocol)
}

// StartReading starts the device read loop, translating each tag into a
// Detection
func (r *TMRReader) StartReading(
	ctx context.Context, callback DetectionFunc, onTime, offTime time.Duration,
) error {
	if callback == nil {
		return fmt.Errorf("%w: nil callback", tmr.ErrInvalidParameter)
	}
	return r.device.StartReading(ctx, func(tag tmr.TagRead) {
		callback(Detection{EPC: tag.EPCString(), RSSI: tag.RSSI})
	}, onTime, offTime)
}

// StopReading stops the device read loop
func (r *TMRReader) StopReading() error {
	return r.device.StopReading()
}

// ReadFailed reports a device read loop that ended on a fatal error
func (r *TMRReader) ReadFailed() <-chan error {
	return r.device.ReadFailed()
}

// Close stops reading if needed and closes the port
func (r *TMRReader) Close() error {
	return r.device.Close()
}

// Version returns the firmware information read while connecting
func (r *TMRReader) Version() *tmr.VersionInfo {
	return r.device.Version()
}

// SupportedRegions lists the regions the module's firmware accepts
func (r *TMRReader) SupportedRegions(ctx context.Context) ([]tmr.Region, error) {
	return r.device.SupportedRegions(ctx)
}

// Metrics returns the read loop counters
func (r *TMRReader) Metrics() tmr.AsyncMetrics {
	return r.device.AsyncMetrics()
}
