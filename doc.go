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

/*
Package tmr provides a pure Go driver for UHF RFID reader modules that
speak the ThingMagic Mercury serial protocol, such as the M6e Nano on the
SparkFun Simultaneous RFID Reader.

Features:
  - UART transport over go.bug.st/serial, with USB bridge auto-detection
  - Firmware boot from the bootloader and version reporting
  - Region of Operation and read plan (antennas, tag protocol) setup
  - Continuous asynchronous reading with on/off duty cycling
  - Retry logic with configurable backoff
  - Error classification for timeout-driven reconnects

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-tmr"
	    "github.com/ZaparooProject/go-tmr/transport/uart"
	)

	transport, err := uart.New("/dev/serial0")
	if err != nil {
	    log.Fatal(err)
	}

	device, err := tmr.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Init(); err != nil {
	    log.Fatal(err)
	}

	ctx := context.Background()
	if err := device.SetRegion(ctx, "NA2"); err != nil {
	    log.Fatal(err)
	}
	if err := device.SetReadPlan(ctx, []int{1}, "GEN2"); err != nil {
	    log.Fatal(err)
	}

	err = device.StartReading(ctx, func(tag tmr.TagRead) {
	    fmt.Printf("EPC %s RSSI %d\n", tag.EPCString(), tag.RSSI)
	}, 250*time.Millisecond, 250*time.Millisecond)

Error Handling:

Transport failures are *TransportError values and module status words
are *StatusError values. Classify separates timeouts, which are worth
retrying, from everything else:

	if tmr.Classify(err) == tmr.KindRetryable {
	    // module did not answer in time
	}

Thread Safety:

Commands are serialized on the device, so the read loop and callers can
share it. Region and read plan changes are refused while reading.
*/
package tmr
