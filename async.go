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
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// TagCallback receives tags found by the asynchronous read loop. It runs
// on the loop's goroutine and should return quickly.
type TagCallback func(TagRead)

// AsyncMetrics tracks the asynchronous read loop
type AsyncMetrics struct {
	Cycles       int64         // Completed on/off cycles
	TagsReported int64         // Tags handed to the callback
	Errors       int64         // Cycles that ended with a retryable error
	LastCycle    time.Duration // Duration of the last on-phase
}

// asyncReader is one run of the read loop
type asyncReader struct {
	err          error
	cancel       context.CancelFunc
	done         chan struct{}
	failed       chan error
	cycles       atomic.Int64
	tagsReported atomic.Int64
	errors       atomic.Int64
	lastCycle    atomic.Int64
}

// StartReading starts continuous reading in the background. Every cycle
// searches for tags for onTime, hands each buffered tag to callback, then
// rests for offTime. Region and read plan must already be set.
func (d *Device) StartReading(ctx context.Context, callback TagCallback, onTime, offTime time.Duration) error {
	if callback == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidParameter)
	}
	if onTime <= 0 || onTime > 65535*time.Millisecond {
		return fmt.Errorf("%w: on time %v out of range", ErrInvalidParameter, onTime)
	}
	if offTime < 0 {
		return fmt.Errorf("%w: off time %v is negative", ErrInvalidParameter, offTime)
	}

	d.asyncMu.Lock()
	defer d.asyncMu.Unlock()

	if d.async != nil {
		return ErrAlreadyReading
	}

	loopCtx, cancel := context.WithCancel(ctx)
	ar := &asyncReader{
		cancel: cancel,
		done:   make(chan struct{}),
		failed: make(chan error, 1),
	}
	d.async = ar

	go func() {
		defer close(ar.done)
		ar.err = d.readLoop(loopCtx, ar, callback, onTime, offTime)
		if ar.err != nil {
			debugf("read loop stopped: %v", ar.err)
			ar.failed <- ar.err
		}
	}()

	debugf("started reading: on %v, off %v", onTime, offTime)
	return nil
}

// StopReading stops the background read loop and waits for it to exit.
// It returns the error that ended the loop early, if any.
func (d *Device) StopReading() error {
	d.asyncMu.Lock()
	ar := d.async
	d.async = nil
	d.asyncMu.Unlock()

	if ar == nil {
		return ErrNotReading
	}

	ar.cancel()
	<-ar.done

	debugf("stopped reading after %d cycles", ar.cycles.Load())
	if ar.err != nil {
		return fmt.Errorf("read loop failed: %w", ar.err)
	}
	return nil
}

// ReadFailed returns a channel that receives the error that ended the
// current read loop when it stopped on its own. Nothing is sent when the
// loop is stopped through StopReading or ctx. The channel is nil when not
// reading.
func (d *Device) ReadFailed() <-chan error {
	d.asyncMu.Lock()
	defer d.asyncMu.Unlock()

	if d.async == nil {
		return nil
	}
	return d.async.failed
}

// IsReading returns true while the background read loop is running
func (d *Device) IsReading() bool {
	d.asyncMu.Lock()
	ar := d.async
	d.asyncMu.Unlock()

	if ar == nil {
		return false
	}
	select {
	case <-ar.done:
		return false
	default:
		return true
	}
}

// AsyncMetrics returns counters for the current read loop
func (d *Device) AsyncMetrics() AsyncMetrics {
	d.asyncMu.Lock()
	ar := d.async
	d.asyncMu.Unlock()

	if ar == nil {
		return AsyncMetrics{}
	}
	return AsyncMetrics{
		Cycles:       ar.cycles.Load(),
		TagsReported: ar.tagsReported.Load(),
		Errors:       ar.errors.Load(),
		LastCycle:    time.Duration(ar.lastCycle.Load()),
	}
}

func (d *Device) readLoop(
	ctx context.Context, ar *asyncReader, callback TagCallback, onTime, offTime time.Duration,
) error {
	if err := d.clearTagBuffer(ctx); err != nil {
		return stopReason(ctx, err)
	}

	for {
		start := time.Now()
		tags, err := d.readCycle(ctx, onTime)
		ar.lastCycle.Store(int64(time.Since(start)))

		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !IsRetryable(err) {
				return err
			}
			ar.errors.Add(1)
			debugf("read cycle failed: %v", err)
		}

		for _, tag := range tags {
			callback(tag)
			ar.tagsReported.Add(1)
		}
		ar.cycles.Add(1)

		if offTime > 0 {
			timer := time.NewTimer(offTime)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return nil
		}
	}
}

// readCycle runs one timed search and drains the tag buffer.
func (d *Device) readCycle(ctx context.Context, onTime time.Duration) ([]TagRead, error) {
	ms := uint16(onTime / time.Millisecond)
	resp, err := d.sendCommandTimeout(ctx, onTime+d.config.Timeout, cmdReadTagMultiple,
		[]byte{byte(ms >> 8), byte(ms)})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == StatusNoTagsFound {
			return nil, nil
		}
		return nil, fmt.Errorf("read tag multiple: %w", err)
	}
	if len(resp) == 0 {
		return nil, fmt.Errorf("%w: empty read tag multiple response", ErrInvalidResponse)
	}

	found := int(resp[len(resp)-1])
	if found == 0 {
		return nil, nil
	}

	readAt := time.Now()
	tags := make([]TagRead, 0, found)
	for len(tags) < found {
		batch, err := d.getTagBuffer(ctx, readAt)
		if err != nil {
			return tags, err
		}
		if len(batch) == 0 {
			break
		}
		tags = append(tags, batch...)
	}

	if err := d.clearTagBuffer(ctx); err != nil {
		return tags, err
	}
	return tags, nil
}

func (d *Device) getTagBuffer(ctx context.Context, readAt time.Time) ([]TagRead, error) {
	resp, err := d.sendCommand(ctx, cmdGetTagBuffer,
		[]byte{byte(defaultMetadata >> 8), byte(defaultMetadata), 0x00})
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == StatusNoTagsFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get tag buffer: %w", err)
	}
	return parseTagBuffer(resp, readAt)
}

func (d *Device) clearTagBuffer(ctx context.Context) error {
	if _, err := d.sendCommand(ctx, cmdClearTagBuffer, nil); err != nil {
		return fmt.Errorf("clear tag buffer: %w", err)
	}
	return nil
}

// stopReason drops errors caused by the loop being cancelled.
func stopReason(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
