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
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"
)

// syncBuffer is a console that can be read while the controller writes
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeReader records every call made on it
type fakeReader struct {
	regionErr error
	planErr   error
	startErr  error
	stopErr   error
	callback  DetectionFunc
	failed    chan error
	calls     []string
	onTime    time.Duration
	offTime   time.Duration
	mu        sync.Mutex
}

func (f *fakeReader) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeReader) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeReader) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeReader) SetRegion(_ context.Context, code string) error {
	f.record("SetRegion " + code)
	return f.regionErr
}

func (f *fakeReader) SetReadPlan(_ context.Context, antennas []int, protocol string) error {
	f.record(fmt.Sprintf("SetReadPlan %v %s", antennas, protocol))
	return f.planErr
}

func (f *fakeReader) StartReading(_ context.Context, callback DetectionFunc, onTime, offTime time.Duration) error {
	f.record("StartReading")
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callback = callback
	f.failed = make(chan error, 1)
	f.onTime = onTime
	f.offTime = offTime
	return nil
}

func (f *fakeReader) StopReading() error {
	f.record("StopReading")
	return f.stopErr
}

func (f *fakeReader) ReadFailed() <-chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}

func (f *fakeReader) Close() error {
	f.record("Close")
	return nil
}

// emit calls the registered callback the way the driver's goroutine would
func (f *fakeReader) emit(d Detection) {
	f.mu.Lock()
	cb := f.callback
	f.mu.Unlock()
	cb(d)
}

// fail ends the read loop the way a fatal driver error would
func (f *fakeReader) fail(err error) {
	f.mu.Lock()
	failed := f.failed
	f.mu.Unlock()
	failed <- err
}

// fakeOpener hands out reader after failing with errs in order
type fakeOpener struct {
	reader   *fakeReader
	errs     []error
	uris     []string
	attempts []time.Time
	mu       sync.Mutex
}

func (o *fakeOpener) Open(_ context.Context, uri string) (Reader, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uris = append(o.uris, uri)
	o.attempts = append(o.attempts, time.Now())
	if n := len(o.attempts); n <= len(o.errs) {
		return nil, o.errs[n-1]
	}
	o.reader.record("Open")
	return o.reader, nil
}

func (o *fakeOpener) Attempts() []time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]time.Time(nil), o.attempts...)
}
