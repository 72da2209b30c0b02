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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-tmr/internal/testing"
)

func newReadyMock() *MockTransport {
	mock := NewMockTransport()
	mock.SetResponse(testutil.CmdGetCurrentProgram, testutil.BuildCurrentProgramResponse(testutil.ProgramApp))
	mock.SetResponse(testutil.CmdGetVersion, testutil.BuildVersionResponse())
	mock.SetResponse(testutil.CmdSetRegion, nil)
	mock.SetResponse(testutil.CmdSetTagProtocol, nil)
	mock.SetResponse(testutil.CmdSetAntennaPort, nil)
	mock.SetResponse(testutil.CmdClearTagBuffer, nil)
	return mock
}

func newTestDevice(t *testing.T, mock *MockTransport) *Device {
	t.Helper()
	device, err := New(mock)
	require.NoError(t, err)
	require.NoError(t, device.InitContext(context.Background()))
	return device
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		transport Transport
		name      string
		opts      []Option
		wantErr   error
	}{
		{name: "Valid_MockTransport", transport: NewMockTransport()},
		{name: "Nil_Transport", transport: nil, wantErr: ErrInvalidParameter},
		{name: "With_Timeout", transport: NewMockTransport(), opts: []Option{WithTimeout(2 * time.Second)}},
		{
			name:      "Bad_Timeout",
			transport: NewMockTransport(),
			opts:      []Option{WithTimeout(0)},
			wantErr:   ErrInvalidParameter,
		},
		{
			name:      "Nil_Retry_Config",
			transport: NewMockTransport(),
			opts:      []Option{WithRetryConfig(nil)},
			wantErr:   ErrInvalidParameter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, err := New(tt.transport, tt.opts...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, device)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.transport, device.Transport())
		})
	}
}

func TestRetryOptionsDoNotShareDefaults(t *testing.T) {
	t.Parallel()

	device, err := New(NewMockTransport(), WithMaxRetries(7), WithRetryBackoff(time.Millisecond))
	require.NoError(t, err)

	assert.Equal(t, 7, device.config.RetryConfig.MaxAttempts)
	assert.Equal(t, time.Millisecond, device.config.RetryConfig.InitialBackoff)
	assert.Equal(t, 3, DefaultRetryConfig().MaxAttempts)
}

func TestDevice_InitContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setupMock      func(*MockTransport)
		name           string
		errorSubstring string
		wantBoot       bool
		expectError    bool
	}{
		{
			name:      "Application_Running",
			setupMock: func(*MockTransport) {},
		},
		{
			name: "Boots_From_Bootloader",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(testutil.CmdGetCurrentProgram,
					testutil.BuildCurrentProgramResponse(testutil.ProgramBootloader))
				mock.SetResponse(testutil.CmdBootFirmware, nil)
			},
			wantBoot: true,
		},
		{
			name: "Boot_Fails",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(testutil.CmdGetCurrentProgram,
					testutil.BuildCurrentProgramResponse(testutil.ProgramBootloader))
				mock.SetError(testutil.CmdBootFirmware, errors.New("boot failed"))
			},
			wantBoot:       true,
			expectError:    true,
			errorSubstring: "boot failed",
		},
		{
			name: "Version_Error",
			setupMock: func(mock *MockTransport) {
				mock.SetError(testutil.CmdGetVersion, errors.New("version failed"))
			},
			expectError:    true,
			errorSubstring: "version failed",
		},
		{
			name: "Short_Version",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(testutil.CmdGetVersion, []byte{0x01, 0x02})
			},
			expectError:    true,
			errorSubstring: "want 20",
		},
		{
			name: "Empty_Program",
			setupMock: func(mock *MockTransport) {
				mock.SetResponse(testutil.CmdGetCurrentProgram, nil)
			},
			expectError:    true,
			errorSubstring: "empty GetCurrentProgram",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newReadyMock()
			tt.setupMock(mock)

			device, err := New(mock)
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			err = device.InitContext(ctx)
			assert.Equal(t, tt.wantBoot, mock.GetCallCount(testutil.CmdBootFirmware) == 1)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorSubstring)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, device.Version())
			assert.Equal(t, "01.0B.02.00", device.Version().FirmwareVersion())
			assert.Equal(t, "18.00.00.02", device.Version().HardwareVersion())
		})
	}
}

func TestDevice_InitTimeout(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	mock.SetDelay(200 * time.Millisecond)

	device, err := New(mock, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	err = device.InitContext(context.Background())
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout, got %v", err)
	assert.Equal(t, KindRetryable, Classify(err))
}

func TestDevice_InitCancelled(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	mock.SetDelay(200 * time.Millisecond)
	device, err := New(mock)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err = device.InitContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindFatal, Classify(err))
}

func TestVersionInfo_SupportsProtocol(t *testing.T) {
	t.Parallel()

	v := &VersionInfo{Protocols: 0x00000010}
	assert.True(t, v.SupportsProtocol(ProtocolGen2))
	assert.False(t, v.SupportsProtocol(ProtocolISO180006B))
	assert.False(t, v.SupportsProtocol(ProtocolNone))
}

func TestDevice_SetRegion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		setupMock func(*MockTransport)
		wantErr   error
		name      string
		code      string
		wantArgs  []byte
	}{
		{name: "NA2", code: "NA2", wantArgs: []byte{0x0D}},
		{name: "lower case", code: "eu3", wantArgs: []byte{0x08}},
		{name: "open", code: "OPEN", wantArgs: []byte{0xFF}},
		{name: "unknown code", code: "MARS", wantErr: ErrUnsupportedRegion},
		{name: "empty code", code: "", wantErr: ErrUnsupportedRegion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newReadyMock()
			device := newTestDevice(t, mock)

			err := device.SetRegion(context.Background(), tt.code)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, mock.GetCallCount(testutil.CmdSetRegion), "nothing should be sent")
				return
			}
			require.NoError(t, err)

			calls := mock.Calls()
			last := calls[len(calls)-1]
			assert.Equal(t, byte(testutil.CmdSetRegion), last.Opcode)
			assert.Equal(t, tt.wantArgs, last.Args)
			assert.Equal(t, Region(tt.wantArgs[0]), device.Region())
		})
	}
}

func TestDevice_SetRegionRejected(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	mock.SetError(testutil.CmdSetRegion, &StatusError{Opcode: cmdSetRegion, Status: StatusInvalidRegion})
	device := newTestDevice(t, mock)

	err := device.SetRegion(context.Background(), "JP")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, RegionNone, device.Region())
}

func TestDevice_SupportedRegions(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	mock.SetResponse(testutil.CmdGetAvailableRegions, testutil.BuildAvailableRegionsResponse(0x0D, 0x08, 0xFF))
	device := newTestDevice(t, mock)

	regions, err := device.SupportedRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Region{RegionNA2, RegionEU3, RegionOpen}, regions)
}

func TestDevice_SetReadPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr     error
		name        string
		protocol    string
		antennas    []int
		wantAntArgs []byte
	}{
		{
			name:        "single antenna",
			antennas:    []int{1},
			protocol:    "GEN2",
			wantAntArgs: []byte{0x01, 0x01},
		},
		{
			name:        "antenna list",
			antennas:    []int{1, 2},
			protocol:    "gen2",
			wantAntArgs: []byte{0x02, 0x01, 0x01, 0x02, 0x02},
		},
		{name: "no antennas", antennas: nil, protocol: "GEN2", wantErr: ErrInvalidParameter},
		{name: "antenna zero", antennas: []int{0}, protocol: "GEN2", wantErr: ErrInvalidParameter},
		{name: "antenna too large", antennas: []int{256}, protocol: "GEN2", wantErr: ErrInvalidParameter},
		{name: "unknown protocol", antennas: []int{1}, protocol: "NFC", wantErr: ErrUnsupportedProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newReadyMock()
			device := newTestDevice(t, mock)

			err := device.SetReadPlan(context.Background(), tt.antennas, tt.protocol)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, mock.GetCallCount(testutil.CmdSetAntennaPort))
				assert.Nil(t, device.ReadPlan())
				return
			}
			require.NoError(t, err)

			calls := mock.Calls()
			require.GreaterOrEqual(t, len(calls), 2)
			proto, ant := calls[len(calls)-2], calls[len(calls)-1]
			assert.Equal(t, byte(testutil.CmdSetTagProtocol), proto.Opcode)
			assert.Equal(t, []byte{0x00, 0x05}, proto.Args)
			assert.Equal(t, byte(testutil.CmdSetAntennaPort), ant.Opcode)
			assert.Equal(t, tt.wantAntArgs, ant.Args)

			plan := device.ReadPlan()
			require.NotNil(t, plan)
			assert.Equal(t, tt.antennas, plan.Antennas)
			assert.Equal(t, ProtocolGen2, plan.Protocol)

			// The returned plan is a copy.
			plan.Antennas[0] = 99
			assert.Equal(t, tt.antennas[0], device.ReadPlan().Antennas[0])
		})
	}
}

func TestDevice_Close(t *testing.T) {
	t.Parallel()

	mock := newReadyMock()
	device := newTestDevice(t, mock)

	require.NoError(t, device.Close())
	assert.False(t, mock.IsConnected())
}
