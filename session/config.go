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
	"fmt"
	"slices"

	tmr "github.com/ZaparooProject/go-tmr"
)

// Defaults for a SparkFun Simultaneous RFID Reader wired to a Raspberry
// Pi's GPIO UART
const (
	DefaultDevicePath = "/dev/serial0"
	DefaultRegion     = "NA2"
	DefaultProtocol   = "GEN2"
	DefaultOnTimeMs   = 250
	DefaultOffTimeMs  = 250
)

// DeviceConfig describes which reader to open and how to read from it.
// A Controller keeps its own copy, so changing a DeviceConfig after New
// has no effect on the session.
type DeviceConfig struct {
	DevicePath string `yaml:"device"`
	Region     string `yaml:"region"`
	Protocol   string `yaml:"protocol"`
	Antennas   []int  `yaml:"antennas"`
	OnTimeMs   int    `yaml:"on_time_ms"`
	OffTimeMs  int    `yaml:"off_time_ms"`
}

// DefaultDeviceConfig returns the stock configuration
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		DevicePath: DefaultDevicePath,
		Region:     DefaultRegion,
		Antennas:   []int{1},
		Protocol:   DefaultProtocol,
		OnTimeMs:   DefaultOnTimeMs,
		OffTimeMs:  DefaultOffTimeMs,
	}
}

// Clone returns a deep copy
func (c DeviceConfig) Clone() DeviceConfig {
	c.Antennas = slices.Clone(c.Antennas)
	return c
}

// URI returns the reader URI for DevicePath
func (c DeviceConfig) URI() string {
	return tmr.FormatURI(c.DevicePath)
}

// Validate checks the configuration without touching hardware
func (c DeviceConfig) Validate() error {
	if _, err := tmr.ParseRegion(c.Region); err != nil {
		return err
	}
	if _, err := tmr.ParseProtocol(c.Protocol); err != nil {
		return err
	}
	if len(c.Antennas) == 0 {
		return fmt.Errorf("%w: at least one antenna is required", tmr.ErrInvalidParameter)
	}
	for _, ant := range c.Antennas {
		if ant < 1 || ant > 255 {
			return fmt.Errorf("%w: antenna %d out of range 1..255", tmr.ErrInvalidParameter, ant)
		}
	}
	if c.OnTimeMs <= 0 || c.OnTimeMs > 65535 {
		return fmt.Errorf("%w: on time %d ms out of range 1..65535", tmr.ErrInvalidParameter, c.OnTimeMs)
	}
	if c.OffTimeMs < 0 || c.OffTimeMs > 65535 {
		return fmt.Errorf("%w: off time %d ms out of range 0..65535", tmr.ErrInvalidParameter, c.OffTimeMs)
	}
	return nil
}
