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

package testing

import (
	"encoding/binary"

	"github.com/ZaparooProject/go-tmr/internal/frame"
)

// Command opcodes for reference
const (
	CmdGetVersion          = 0x03
	CmdBootFirmware        = 0x04
	CmdGetCurrentProgram   = 0x0C
	CmdReadTagMultiple     = 0x22
	CmdGetTagBuffer        = 0x29
	CmdClearTagBuffer      = 0x2A
	CmdGetAvailableRegions = 0x71
	CmdSetAntennaPort      = 0x91
	CmdSetTagProtocol      = 0x93
	CmdSetRegion           = 0x97
)

// Status words
const (
	StatusOK          uint16 = 0x0000
	StatusNoTagsFound uint16 = 0x0400
	StatusInvalidRegn uint16 = 0x0202
)

// Programs reported by GetCurrentProgram
const (
	ProgramBootloader = 0x11
	ProgramApp        = 0x12
)

// BuildVersionResponse creates a GetVersion payload for an M6e Nano
// running firmware 01.0B.02.00 with Gen2 support.
func BuildVersionResponse() []byte {
	return []byte{
		0x12, 0x12, 0x00, 0x00, // bootloader
		0x18, 0x00, 0x00, 0x02, // hardware
		0x20, 0x17, 0x06, 0x29, // firmware date
		0x01, 0x0B, 0x02, 0x00, // firmware version
		0x00, 0x00, 0x00, 0x10, // supported protocols, bit 4 = Gen2
	}
}

// BuildCurrentProgramResponse creates a GetCurrentProgram payload
func BuildCurrentProgramResponse(program byte) []byte {
	return []byte{program}
}

// BuildReadTagMultipleResponse creates a ReadTagMultiple payload reporting count tags
func BuildReadTagMultipleResponse(count int) []byte {
	return []byte{byte(count)}
}

// BuildTagBufferResponse creates a GetTagBuffer payload carrying read
// count, RSSI and antenna metadata for each tag
func BuildTagBufferResponse(tags ...*VirtualTag) []byte {
	const meta = 0x0007
	resp := []byte{byte(meta >> 8), byte(meta), 0x00, byte(len(tags))}
	for _, tag := range tags {
		resp = append(resp, tag.ReadCount, byte(tag.RSSI), tag.Antenna<<4|tag.Antenna)

		epcBits := uint16((len(tag.EPC) + 4) * 8)
		resp = binary.BigEndian.AppendUint16(resp, epcBits)
		resp = binary.BigEndian.AppendUint16(resp, tag.PC())
		resp = append(resp, tag.EPC...)
		resp = binary.BigEndian.AppendUint16(resp, frame.CalculateCRC(tag.EPC))
	}
	return resp
}

// BuildAvailableRegionsResponse creates a GetAvailableRegions payload
func BuildAvailableRegionsResponse(regions ...byte) []byte {
	return append([]byte(nil), regions...)
}

// Common EPCs for testing
var (
	// TestEPC1 is a 96-bit EPC as commonly found on retail tags
	TestEPC1 = []byte{0xE2, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}

	// TestEPC2 is a second 96-bit EPC
	TestEPC2 = []byte{0x30, 0x08, 0x33, 0xB2, 0xDD, 0xD9, 0x01, 0x40, 0x00, 0x00, 0x00, 0x00}
)
