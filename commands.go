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

// Mercury serial protocol opcodes
const (
	cmdGetVersion          = 0x03
	cmdBootFirmware        = 0x04
	cmdGetCurrentProgram   = 0x0C
	cmdReadTagMultiple     = 0x22
	cmdGetTagBuffer        = 0x29
	cmdClearTagBuffer      = 0x2A
	cmdGetAvailableRegions = 0x71
	cmdSetAntennaPort      = 0x91
	cmdSetTagProtocol      = 0x93
	cmdSetRegion           = 0x97
)

// Module status words
const (
	StatusOK             uint16 = 0x0000
	StatusInvalidOpcode  uint16 = 0x0101
	StatusWrongProgram   uint16 = 0x0105 // command not valid in the running program
	StatusNoTagsFound    uint16 = 0x0400
	StatusInvalidRegion  uint16 = 0x0202 // region not supported by the firmware
	StatusTagBufferFull  uint16 = 0x0601
)

// Programs reported by GetCurrentProgram
const (
	programBootloader = 0x11
	programApp        = 0x12
)

// Tag metadata flags for GetTagBuffer. Fields come back in bit order.
const (
	metaReadCount uint16 = 0x0001
	metaRSSI      uint16 = 0x0002
	metaAntennaID uint16 = 0x0004
	metaFrequency uint16 = 0x0008
	metaTimestamp uint16 = 0x0010
	metaPhase     uint16 = 0x0020
	metaProtocol  uint16 = 0x0040

	defaultMetadata = metaReadCount | metaRSSI | metaAntennaID
)

// antennaSearchList is the SetAntennaPort option selecting a list of
// tx/rx pairs instead of a single port.
const antennaSearchList = 0x02
