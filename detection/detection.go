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

// Package detection finds serial ports that may have a Mercury reader
// module behind them.
package detection

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.bug.st/serial/enumerator"
)

// TransportUART is the only transport Mercury modules expose
const TransportUART = "uart"

// DeviceInfo describes a candidate reader port
type DeviceInfo struct {
	Metadata     map[string]string
	Path         string
	Transport    string
	Name         string
	VIDPID       string
	SerialNumber string
	IsUSB        bool
}

// Options controls which ports are reported
type Options struct {
	Blocklist   []string
	IgnorePaths []string
	Timeout     time.Duration
	// IncludeNonUSB also reports on-board UARTs such as /dev/serial0, which
	// cannot be told apart from other serial hardware.
	IncludeNonUSB bool
}

// DefaultOptions returns the default detection options
func DefaultOptions() Options {
	return Options{
		Blocklist: DefaultBlocklist(),
		Timeout:   5 * time.Second,
	}
}

// portLister is swapped out in tests
var portLister = enumerator.GetDetailedPortsList

// DetectAll returns candidate reader ports
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	return DetectAllContext(context.Background(), opts)
}

// DetectAllContext returns candidate reader ports. Ports behind a known
// reader bridge come first; the rest keep the enumerator's order.
func DetectAllContext(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		err   error
		ports []*enumerator.PortDetails
	}
	done := make(chan result, 1)
	lister := portLister
	go func() {
		ports, err := lister()
		done <- result{ports: ports, err: err}
	}()

	var ports []*enumerator.PortDetails
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("port enumeration: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("port enumeration: %w", res.err)
		}
		ports = res.ports
	}

	return filterPorts(ports, opts), nil
}

func filterPorts(ports []*enumerator.PortDetails, opts *Options) []DeviceInfo {
	devices := make([]DeviceInfo, 0, len(ports))
	for _, port := range ports {
		if port == nil || IsPathIgnored(port.Name, opts.IgnorePaths) {
			continue
		}
		if !port.IsUSB && !opts.IncludeNonUSB {
			continue
		}

		vidpid := FormatVIDPID(port.VID, port.PID)
		if IsBlocked(vidpid, opts.Blocklist) {
			continue
		}

		devices = append(devices, DeviceInfo{
			Path:         port.Name,
			Transport:    TransportUART,
			Name:         port.Product,
			VIDPID:       vidpid,
			SerialNumber: port.SerialNumber,
			IsUSB:        port.IsUSB,
			Metadata: map[string]string{
				"known_bridge": strconv.FormatBool(IsKnownBridge(vidpid)),
			},
		})
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return isKnownBridge(devices[i]) && !isKnownBridge(devices[j])
	})
	return devices
}

func isKnownBridge(d DeviceInfo) bool {
	return d.Metadata["known_bridge"] == "true"
}
