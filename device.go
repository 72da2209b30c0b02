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

package tmr

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout is the default time to wait for a module response
const DefaultTimeout = time.Second

// bootTimeout covers the firmware boot, which takes well over a second on
// an M6e Nano.
const bootTimeout = 3 * time.Second

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// RetryConfig configures retry behavior for transport operations
	RetryConfig *RetryConfig
	// Timeout is the default timeout for operations
	Timeout time.Duration
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     DefaultTimeout,
	}
}

// VersionInfo is the decoded GetVersion response
type VersionInfo struct {
	Bootloader   [4]byte
	Hardware     [4]byte
	FirmwareDate [4]byte
	Firmware     [4]byte
	Protocols    uint32
}

// FirmwareVersion returns the firmware version as dotted hex, e.g. "01.0B.02.00"
func (v *VersionInfo) FirmwareVersion() string {
	return fmt.Sprintf("%02X.%02X.%02X.%02X", v.Firmware[0], v.Firmware[1], v.Firmware[2], v.Firmware[3])
}

// HardwareVersion returns the hardware version as dotted hex
func (v *VersionInfo) HardwareVersion() string {
	return fmt.Sprintf("%02X.%02X.%02X.%02X", v.Hardware[0], v.Hardware[1], v.Hardware[2], v.Hardware[3])
}

// SupportsProtocol reports whether the firmware advertises protocol p
func (v *VersionInfo) SupportsProtocol(p TagProtocol) bool {
	if p == ProtocolNone || p > 32 {
		return false
	}
	return v.Protocols&(1<<(uint32(p)-1)) != 0
}

// ReadPlan is the antenna set and protocol used when searching for tags
type ReadPlan struct {
	Antennas []int
	Protocol TagProtocol
}

// Device represents a Mercury-protocol RFID reader module
//
// Thread Safety: configuration methods must be called from a single
// goroutine. Commands are serialized internally so the asynchronous read
// loop can share the transport, but configuration calls are rejected with
// ErrAlreadyReading while the loop runs.
type Device struct {
	transport Transport
	config    *DeviceConfig
	version   *VersionInfo
	plan      *ReadPlan
	async     *asyncReader
	region    Region
	cmdMu     sync.Mutex
	asyncMu   sync.Mutex
}

// New creates a new device with the given transport
func New(transport Transport, opts ...Option) (*Device, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	device := &Device{
		transport: transport,
		config:    DefaultDeviceConfig(),
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	return device, nil
}

// Transport returns the underlying transport
func (d *Device) Transport() Transport {
	return d.transport
}

// SetTimeout sets the default timeout for operations
func (d *Device) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidParameter)
	}
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// SetRetryConfig updates the retry configuration
func (d *Device) SetRetryConfig(config *RetryConfig) {
	d.config.RetryConfig = config
	if tr, ok := d.transport.(*TransportWithRetry); ok {
		tr.SetRetryConfig(config)
	}
}

// sendCommand runs one command with the device timeout applied on top of ctx.
func (d *Device) sendCommand(ctx context.Context, opcode byte, args []byte) ([]byte, error) {
	return d.sendCommandTimeout(ctx, d.config.Timeout, opcode, args)
}

func (d *Device) sendCommandTimeout(
	ctx context.Context, timeout time.Duration, opcode byte, args []byte,
) ([]byte, error) {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := asTransportContext(d.transport, d.config.Timeout).SendCommandContext(cmdCtx, opcode, args)
	if err != nil {
		// A deadline we imposed is a module timeout, not a caller cancellation.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("opcode 0x%02X: %w", opcode, NewTimeoutError("SendCommand", string(d.transport.Type())))
		}
		return nil, err
	}
	return resp, nil
}

func (d *Device) ensureIdle() error {
	if d.IsReading() {
		return ErrAlreadyReading
	}
	return nil
}

// Init initializes the device
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// InitContext checks that a module answers, boots its firmware if it is
// sitting in the bootloader and caches its version information.
func (d *Device) InitContext(ctx context.Context) error {
	program, err := d.currentProgram(ctx)
	if err != nil {
		return fmt.Errorf("failed to query running program: %w", err)
	}

	if program == programBootloader {
		debugln("module is in bootloader, booting firmware")
		if _, err := d.sendCommandTimeout(ctx, bootTimeout, cmdBootFirmware, nil); err != nil {
			return fmt.Errorf("failed to boot firmware: %w", err)
		}
	}

	version, err := d.getVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	d.version = version
	debugf("module firmware %s, hardware %s", version.FirmwareVersion(), version.HardwareVersion())
	return nil
}

func (d *Device) currentProgram(ctx context.Context) (byte, error) {
	resp, err := d.sendCommand(ctx, cmdGetCurrentProgram, nil)
	if err != nil {
		return 0, err
	}
	if len(resp) < 1 {
		return 0, fmt.Errorf("%w: empty GetCurrentProgram response", ErrInvalidResponse)
	}
	return resp[0] & 0x1F, nil
}

func (d *Device) getVersion(ctx context.Context) (*VersionInfo, error) {
	resp, err := d.sendCommand(ctx, cmdGetVersion, nil)
	if err != nil {
		return nil, err
	}
	if len(resp) < 20 {
		return nil, fmt.Errorf("%w: GetVersion response is %d bytes, want 20", ErrInvalidResponse, len(resp))
	}

	v := &VersionInfo{}
	copy(v.Bootloader[:], resp[0:4])
	copy(v.Hardware[:], resp[4:8])
	copy(v.FirmwareDate[:], resp[8:12])
	copy(v.Firmware[:], resp[12:16])
	v.Protocols = binary.BigEndian.Uint32(resp[16:20])
	return v, nil
}

// Version returns the version information read during Init, or nil
func (d *Device) Version() *VersionInfo {
	return d.version
}

// SetRegion selects the Region of Operation by code, e.g. "NA2". It must
// be called before SetReadPlan.
func (d *Device) SetRegion(ctx context.Context, code string) error {
	region, err := ParseRegion(code)
	if err != nil {
		return err
	}
	if err := d.ensureIdle(); err != nil {
		return err
	}

	if _, err := d.sendCommand(ctx, cmdSetRegion, []byte{byte(region)}); err != nil {
		return fmt.Errorf("failed to set region %s: %w", region, err)
	}
	d.region = region
	debugf("region set to %s", region)
	return nil
}

// Region returns the region last set with SetRegion
func (d *Device) Region() Region {
	return d.region
}

// SupportedRegions asks the module which regions its firmware supports
func (d *Device) SupportedRegions(ctx context.Context) ([]Region, error) {
	if err := d.ensureIdle(); err != nil {
		return nil, err
	}

	resp, err := d.sendCommand(ctx, cmdGetAvailableRegions, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get available regions: %w", err)
	}

	regions := make([]Region, 0, len(resp))
	for _, b := range resp {
		regions = append(regions, Region(b))
	}
	return regions, nil
}

// SetReadPlan selects the tag protocol and the antennas to search on.
// Antenna numbers are 1-based.
func (d *Device) SetReadPlan(ctx context.Context, antennas []int, protocol string) error {
	if len(antennas) == 0 {
		return fmt.Errorf("%w: read plan needs at least one antenna", ErrInvalidParameter)
	}
	for _, ant := range antennas {
		if ant < 1 || ant > 255 {
			return fmt.Errorf("%w: antenna %d out of range", ErrInvalidParameter, ant)
		}
	}
	proto, err := ParseProtocol(protocol)
	if err != nil {
		return err
	}
	if err := d.ensureIdle(); err != nil {
		return err
	}

	if _, err := d.sendCommand(ctx, cmdSetTagProtocol, []byte{0x00, byte(proto)}); err != nil {
		return fmt.Errorf("failed to set tag protocol %s: %w", proto, err)
	}
	if _, err := d.sendCommand(ctx, cmdSetAntennaPort, antennaPortArgs(antennas)); err != nil {
		return fmt.Errorf("failed to set antennas %v: %w", antennas, err)
	}

	d.plan = &ReadPlan{
		Antennas: append([]int(nil), antennas...),
		Protocol: proto,
	}
	debugf("read plan set: protocol %s, antennas %v", proto, antennas)
	return nil
}

// antennaPortArgs encodes antennas as monostatic tx/rx pairs. A single
// antenna uses the short form.
func antennaPortArgs(antennas []int) []byte {
	if len(antennas) == 1 {
		return []byte{byte(antennas[0]), byte(antennas[0])}
	}
	args := make([]byte, 0, 1+2*len(antennas))
	args = append(args, antennaSearchList)
	for _, ant := range antennas {
		args = append(args, byte(ant), byte(ant))
	}
	return args
}

// ReadPlan returns the read plan last set with SetReadPlan, or nil
func (d *Device) ReadPlan() *ReadPlan {
	if d.plan == nil {
		return nil
	}
	return &ReadPlan{
		Antennas: append([]int(nil), d.plan.Antennas...),
		Protocol: d.plan.Protocol,
	}
}

// Close stops asynchronous reading if it is running and closes the transport
func (d *Device) Close() error {
	if err := d.StopReading(); err != nil && !errors.Is(err, ErrNotReading) {
		debugf("stop reading during close: %v", err)
	}
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}
