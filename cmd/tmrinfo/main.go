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

// Command tmrinfo lists candidate reader ports and prints what a
// connected Mercury module reports about itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	tmr "github.com/ZaparooProject/go-tmr"
	"github.com/ZaparooProject/go-tmr/detection"
	"github.com/ZaparooProject/go-tmr/session"
	"github.com/ZaparooProject/go-tmr/transport/uart"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, out io.Writer) int {
	device := flag.String("device", "", "Serial device path. Leave empty to only list ports.")
	baud := flag.Int("baud", uart.DefaultBaudRate, "UART baud rate")
	all := flag.Bool("all", false, "Also list non-USB serial ports")
	timeout := flag.Duration("timeout", 10*time.Second, "Connection timeout")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	if *debug {
		tmr.SetDebugEnabled(true)
	}

	if err := listPorts(ctx, out, *all); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *device == "" {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	reader, err := session.DialTMR(ctx, tmr.FormatURI(*device), *baud)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: failed to connect to %s: %v\n", *device, err)
		return 1
	}
	defer func() { _ = reader.Close() }()

	if err := printModule(ctx, out, reader); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func listPorts(ctx context.Context, out io.Writer, all bool) error {
	opts := detection.DefaultOptions()
	opts.IncludeNonUSB = all

	devices, err := detection.DetectAllContext(ctx, &opts)
	if err != nil {
		return fmt.Errorf("port discovery failed: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Found %d candidate port(s)\n", len(devices))
	for _, d := range devices {
		line := "  " + d.Path
		if d.VIDPID != "" {
			line += " [" + d.VIDPID + "]"
		}
		if d.Name != "" {
			line += " " + d.Name
		}
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}

// moduleInfo is the subset of TMRReader tmrinfo prints
type moduleInfo interface {
	Version() *tmr.VersionInfo
	SupportedRegions(ctx context.Context) ([]tmr.Region, error)
}

func printModule(ctx context.Context, out io.Writer, m moduleInfo) error {
	if v := m.Version(); v != nil {
		_, _ = fmt.Fprintf(out, "Firmware: %s\n", v.FirmwareVersion())
		_, _ = fmt.Fprintf(out, "Hardware: %s\n", v.HardwareVersion())
		_, _ = fmt.Fprintf(out, "Gen2:     %t\n", v.SupportsProtocol(tmr.ProtocolGen2))
	}

	regions, err := m.SupportedRegions(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(regions))
	for _, r := range regions {
		names = append(names, r.String())
	}
	_, _ = fmt.Fprintf(out, "Regions:  %s\n", strings.Join(names, ", "))
	return nil
}
