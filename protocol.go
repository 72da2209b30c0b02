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
	"fmt"
	"strings"
)

// TagProtocol identifies the air protocol used to search for tags.
type TagProtocol byte

// Tag protocols as numbered by the Mercury protocol
const (
	ProtocolNone       TagProtocol = 0x00
	ProtocolISO180006B TagProtocol = 0x03
	ProtocolGen2       TagProtocol = 0x05
	ProtocolUCODE      TagProtocol = 0x06
	ProtocolIPX64      TagProtocol = 0x07
	ProtocolIPX256     TagProtocol = 0x08
	ProtocolATA        TagProtocol = 0x1D
)

var protocolNames = map[TagProtocol]string{
	ProtocolISO180006B: "ISO180006B",
	ProtocolGen2:       "GEN2",
	ProtocolUCODE:      "ISO180006B_UCODE",
	ProtocolIPX64:      "IPX64",
	ProtocolIPX256:     "IPX256",
	ProtocolATA:        "ATA",
}

func (p TagProtocol) String() string {
	if name, ok := protocolNames[p]; ok {
		return name
	}
	return fmt.Sprintf("TagProtocol(0x%02X)", byte(p))
}

// ParseProtocol converts a protocol name such as "GEN2" to a TagProtocol.
func ParseProtocol(name string) (TagProtocol, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for protocol, n := range protocolNames {
		if n == name {
			return protocol, nil
		}
	}
	return ProtocolNone, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, name)
}
