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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/ZaparooProject/go-tmr/internal/testing"
)

func TestParseTagBuffer(t *testing.T) {
	t.Parallel()

	tag1 := testutil.NewVirtualTag(testutil.TestEPC1, -62)
	tag2 := testutil.NewVirtualTag(testutil.TestEPC2, -48)
	tag2.Antenna = 2
	tag2.ReadCount = 4

	readAt := time.Unix(1700000000, 0)
	tags, err := parseTagBuffer(testutil.BuildTagBufferResponse(tag1, tag2), readAt)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	assert.Equal(t, "E20000000000000000000001", tags[0].EPCString())
	assert.Equal(t, -62, tags[0].RSSI)
	assert.Equal(t, 1, tags[0].Antenna)
	assert.Equal(t, 1, tags[0].ReadCount)
	assert.Equal(t, uint16(0x3000), tags[0].PC)
	assert.Equal(t, readAt, tags[0].ReadAt)

	assert.Equal(t, "300833B2DDD9014000000000", tags[1].EPCString())
	assert.Equal(t, -48, tags[1].RSSI)
	assert.Equal(t, 2, tags[1].Antenna)
	assert.Equal(t, 4, tags[1].ReadCount)
}

func TestParseTagBufferAllMetadata(t *testing.T) {
	t.Parallel()

	resp := []byte{
		0x00, 0x7F, // every metadata field
		0x00, 0x01, // option, count
		0x03,             // read count
		0xC4,             // RSSI -60
		0x22,             // antenna 2
		0x0E, 0x28, 0xC8, // 927944 kHz
		0x00, 0x00, 0x01, 0xF4, // timestamp 500
		0x00, 0x5A, // phase 90
		0x05,       // Gen2
		0x00, 0x40, // 64 bits: PC + 4 byte EPC + CRC
		0x10, 0x00, 0xDE, 0xAD, 0xBE, 0xEF, 0x12, 0x34,
	}

	tags, err := parseTagBuffer(resp, time.Time{})
	require.NoError(t, err)
	require.Len(t, tags, 1)

	tag := tags[0]
	assert.Equal(t, 3, tag.ReadCount)
	assert.Equal(t, -60, tag.RSSI)
	assert.Equal(t, 2, tag.Antenna)
	assert.Equal(t, uint32(927944), tag.Frequency)
	assert.Equal(t, uint32(500), tag.Timestamp)
	assert.Equal(t, uint16(90), tag.Phase)
	assert.Equal(t, ProtocolGen2, tag.Protocol)
	assert.Equal(t, uint16(0x1000), tag.PC)
	assert.Equal(t, "DEADBEEF", tag.EPCString())
	assert.Equal(t, "EPC=DEADBEEF RSSI=-60 antenna=2 count=3", tag.String())
}

func TestParseTagBufferErrors(t *testing.T) {
	t.Parallel()

	good := testutil.BuildTagBufferResponse(testutil.NewVirtualTag(nil, -60))

	tests := []struct {
		name string
		resp []byte
	}{
		{name: "too short", resp: []byte{0x00, 0x07}},
		{name: "metadata truncated", resp: good[:5]},
		{name: "length missing", resp: good[:7]},
		{name: "epc truncated", resp: good[:len(good)-3]},
		{name: "epc length too small", resp: []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x10, 0x30, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseTagBuffer(tt.resp, time.Time{})
			require.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestParseTagBufferEmpty(t *testing.T) {
	t.Parallel()

	tags, err := parseTagBuffer(testutil.BuildTagBufferResponse(), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, tags)
}
