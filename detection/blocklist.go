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

package detection

import (
	"path/filepath"
	"slices"
	"strings"
)

// DefaultBlocklist returns USB serial devices that are never readers and
// should not be opened during detection, as VID:PID in hex.
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets when the port opens
		"2341:0042", // Arduino Mega 2560
		"1366:0105", // SEGGER J-Link CDC
	}
}

// KnownBridges returns the USB-serial bridges commonly found on Mercury
// reader boards. Ports behind these sort first.
func KnownBridges() []string {
	return []string{
		"0403:6015", // FTDI FT231X, SparkFun Simultaneous RFID Reader
		"0403:6001", // FTDI FT232R
		"1A86:7523", // WCH CH340
		"10C4:EA60", // Silicon Labs CP210x
	}
}

// FormatVIDPID joins a vendor and product id into the VID:PID form used
// by the lists above. It returns "" unless both are present.
func FormatVIDPID(vid, pid string) string {
	vid = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(vid), "0x"))
	pid = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(pid), "0x"))
	if vid == "" || pid == "" {
		return ""
	}
	return vid + ":" + pid
}

// IsBlocked checks if a VID:PID is in the blocklist (case-insensitive).
func IsBlocked(vidpid string, blocklist []string) bool {
	return matchesVIDPID(vidpid, blocklist)
}

// IsKnownBridge checks if a VID:PID is one of KnownBridges.
func IsKnownBridge(vidpid string) bool {
	return matchesVIDPID(vidpid, KnownBridges())
}

func matchesVIDPID(vidpid string, list []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	if vidpid == "" {
		return false
	}
	return slices.ContainsFunc(list, func(entry string) bool {
		return strings.ToUpper(strings.TrimSpace(entry)) == vidpid
	})
}

// IsPathIgnored checks if a device path should be ignored. Paths are
// cleaned and compared case-insensitively.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}

	device := normalizedPath(devicePath)
	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}
		if device == normalizedPath(ignorePath) {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
