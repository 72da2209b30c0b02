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
	"context"
	"time"
)

// Detection is one tag seen by the reader
type Detection struct {
	EPC  string // upper-case hex
	RSSI int    // dBm
}

// DetectionFunc receives detections on the reader's own goroutine
type DetectionFunc func(Detection)

// Reader is the driver surface a Controller needs
type Reader interface {
	SetRegion(ctx context.Context, code string) error
	SetReadPlan(ctx context.Context, antennas []int, protocol string) error
	StartReading(ctx context.Context, callback DetectionFunc, onTime, offTime time.Duration) error
	StopReading() error
	// ReadFailed receives the error that ends reading without StopReading
	ReadFailed() <-chan error
	Close() error
}

// OpenFunc opens the reader at uri, e.g. "tmr:///dev/serial0". Errors for
// which tmr.Classify returns tmr.KindRetryable make the Controller try
// again.
type OpenFunc func(ctx context.Context, uri string) (Reader, error)
