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

package frame

const (
	Header = 0xFF // Every frame in both directions starts with this byte
)

const (
	MaxDataLength     = 250 // Maximum payload carried by one frame
	CommandOverhead   = 5   // header + length + opcode + CRC(2)
	ResponseOverhead  = 7   // header + length + opcode + status(2) + CRC(2)
	ResponseHeaderLen = 5   // header + length + opcode + status(2)
)

// NoTagsFound is the status word read commands use when the search came up empty.
const NoTagsFound uint16 = 0x0400
