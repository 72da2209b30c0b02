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
	"sort"
	"strings"
)

// Region is a regulatory Region of Operation understood by the module.
type Region byte

// Regions as numbered by the Mercury protocol
const (
	RegionNone Region = 0x00
	RegionNA   Region = 0x01
	RegionEU   Region = 0x02
	RegionKR   Region = 0x03
	RegionIN   Region = 0x04
	RegionJP   Region = 0x05
	RegionPRC  Region = 0x06
	RegionEU2  Region = 0x07
	RegionEU3  Region = 0x08
	RegionKR2  Region = 0x09
	RegionPRC2 Region = 0x0A
	RegionAU   Region = 0x0B
	RegionNZ   Region = 0x0C
	RegionNA2  Region = 0x0D
	RegionNA3  Region = 0x0E
	RegionIS   Region = 0x0F
	RegionOpen Region = 0xFF
)

var regionNames = map[Region]string{
	RegionNA:   "NA",
	RegionEU:   "EU",
	RegionKR:   "KR",
	RegionIN:   "IN",
	RegionJP:   "JP",
	RegionPRC:  "PRC",
	RegionEU2:  "EU2",
	RegionEU3:  "EU3",
	RegionKR2:  "KR2",
	RegionPRC2: "PRC2",
	RegionAU:   "AU",
	RegionNZ:   "NZ",
	RegionNA2:  "NA2",
	RegionNA3:  "NA3",
	RegionIS:   "IS",
	RegionOpen: "OPEN",
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Region(0x%02X)", byte(r))
}

// ParseRegion converts a region code such as "NA2" or "eu3" to a Region.
func ParseRegion(code string) (Region, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for region, name := range regionNames {
		if name == code {
			return region, nil
		}
	}
	return RegionNone, fmt.Errorf("%w: %q", ErrUnsupportedRegion, code)
}

// RegionCodes returns every known region code, sorted.
func RegionCodes() []string {
	codes := make([]string, 0, len(regionNames))
	for _, name := range regionNames {
		codes = append(codes, name)
	}
	sort.Strings(codes)
	return codes
}
