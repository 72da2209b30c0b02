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

// VirtualTag represents a simulated UHF Gen2 tag in the field of a
// virtual module
type VirtualTag struct {
	EPC       []byte
	RSSI      int8
	Antenna   byte
	ReadCount byte
	Present   bool
}

// NewVirtualTag creates a present tag seen once on antenna 1
func NewVirtualTag(epc []byte, rssi int8) *VirtualTag {
	if epc == nil {
		epc = TestEPC1
	}
	return &VirtualTag{
		EPC:       append([]byte(nil), epc...),
		RSSI:      rssi,
		Antenna:   1,
		ReadCount: 1,
		Present:   true,
	}
}

// PC returns the protocol control word, which carries the EPC length in
// 16-bit words in its top five bits
func (t *VirtualTag) PC() uint16 {
	return uint16(len(t.EPC)/2) << 11
}
