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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tmr "github.com/ZaparooProject/go-tmr"
	testutil "github.com/ZaparooProject/go-tmr/internal/testing"
)

func newMockTMRReader(t *testing.T) (*TMRReader, *tmr.MockTransport) {
	t.Helper()

	mock := tmr.NewMockTransport()
	mock.SetResponse(testutil.CmdGetCurrentProgram, testutil.BuildCurrentProgramResponse(testutil.ProgramApp))
	mock.SetResponse(testutil.CmdGetVersion, testutil.BuildVersionResponse())
	mock.SetResponse(testutil.CmdSetRegion, nil)
	mock.SetResponse(testutil.CmdSetTagProtocol, nil)
	mock.SetResponse(testutil.CmdSetAntennaPort, nil)
	mock.SetResponse(testutil.CmdClearTagBuffer, nil)
	mock.SetResponse(testutil.CmdGetAvailableRegions, testutil.BuildAvailableRegionsResponse(0x0D, 0xFF))

	device, err := tmr.New(mock)
	require.NoError(t, err)
	require.NoError(t, device.Init())
	return NewTMRReader(device), mock
}

func TestTMRReaderDetections(t *testing.T) {
	t.Parallel()

	r, mock := newMockTMRReader(t)
	mock.SetResponse(testutil.CmdReadTagMultiple, testutil.BuildReadTagMultipleResponse(1))
	mock.SetResponse(testutil.CmdGetTagBuffer,
		testutil.BuildTagBufferResponse(testutil.NewVirtualTag(testutil.TestEPC1, -42)))

	ctx := context.Background()
	require.NoError(t, r.SetRegion(ctx, "NA2"))
	require.NoError(t, r.SetReadPlan(ctx, []int{1}, "GEN2"))

	got := make(chan Detection, 8)
	require.NoError(t, r.StartReading(ctx, func(d Detection) {
		select {
		case got <- d:
		default:
		}
	}, 10*time.Millisecond, 10*time.Millisecond))

	select {
	case d := <-got:
		assert.Equal(t, Detection{EPC: "E20000000000000000000001", RSSI: -42}, d)
	case <-time.After(2 * time.Second):
		t.Fatal("no detection")
	}

	require.NoError(t, r.StopReading())
	assert.GreaterOrEqual(t, r.Metrics().Cycles, int64(0))
	require.NoError(t, r.Close())
	assert.False(t, mock.IsConnected())
}

func TestTMRReaderInfo(t *testing.T) {
	t.Parallel()

	r, _ := newMockTMRReader(t)
	assert.Equal(t, "01.0B.02.00", r.Version().FirmwareVersion())

	regions, err := r.SupportedRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []tmr.Region{tmr.RegionNA2, tmr.RegionOpen}, regions)
	assert.NotNil(t, r.Device())
}

func TestTMRReaderNilCallback(t *testing.T) {
	t.Parallel()

	r, _ := newMockTMRReader(t)
	err := r.StartReading(context.Background(), nil, time.Millisecond, 0)
	require.ErrorIs(t, err, tmr.ErrInvalidParameter)
}

func TestDialTMRBadURI(t *testing.T) {
	t.Parallel()

	_, err := DialTMR(context.Background(), "http://example.com", 115200)
	require.ErrorIs(t, err, tmr.ErrInvalidParameter)

	_, err = TMROpener(115200)(context.Background(), "tmr:///dev/tmr-port-that-does-not-exist")
	require.ErrorIs(t, err, tmr.ErrDeviceNotFound)
	assert.Equal(t, tmr.KindFatal, tmr.Classify(err))
}

func TestTMRReaderReportsLoopFailure(t *testing.T) {
	t.Parallel()

	r, mock := newMockTMRReader(t)
	assert.Nil(t, r.ReadFailed())

	mock.SetError(testutil.CmdClearTagBuffer, &tmr.StatusError{Opcode: 0x2A, Status: tmr.StatusWrongProgram})
	require.NoError(t, r.StartReading(context.Background(), func(Detection) {}, 10*time.Millisecond, 0))

	select {
	case err := <-r.ReadFailed():
		var se *tmr.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, tmr.StatusWrongProgram, se.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("read loop failure not reported")
	}
	require.Error(t, r.StopReading())
}
