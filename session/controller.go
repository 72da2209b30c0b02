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

// Package session runs a reader session: connect with retry, configure
// region and read plan, read asynchronously until cancelled, then shut
// down.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	tmr "github.com/ZaparooProject/go-tmr"
	"github.com/ZaparooProject/go-tmr/internal/transport"
)

const (
	// DefaultRetryDelay is the wait between connection attempts
	DefaultRetryDelay = time.Second
	// DefaultIdleInterval is how often the idle wait reports it is waiting
	DefaultIdleInterval = time.Second

	detectionBuffer = 64
)

// ErrInvalidState is returned when an operation is called out of order
var ErrInvalidState = errors.New("invalid session state")

// Controller drives one reader through its lifecycle. Operations must be
// called from one goroutine in order: Connect, Configure, Start,
// RunUntilCancelled, Shutdown. Run does all of them.
type Controller struct {
	open         OpenFunc
	reader       Reader
	console      io.Writer
	logger       *log.Logger
	detections   chan Detection
	done         chan struct{}
	readFailed   <-chan error
	id           string
	cfg          DeviceConfig
	retryDelay   time.Duration
	idleInterval time.Duration
	maxAttempts  int
	state        State
	mu           sync.Mutex
}

// New creates a controller for cfg. open is called to connect; pass
// TMROpener for real hardware.
func New(cfg DeviceConfig, open OpenFunc, opts ...Option) (*Controller, error) {
	if open == nil {
		return nil, fmt.Errorf("%w: nil open function", tmr.ErrInvalidParameter)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid device config: %w", err)
	}

	c := &Controller{
		cfg:          cfg.Clone(),
		open:         open,
		console:      os.Stdout,
		logger:       log.Default(),
		detections:   make(chan Detection, detectionBuffer),
		done:         make(chan struct{}),
		id:           uuid.NewString(),
		retryDelay:   DefaultRetryDelay,
		idleInterval: DefaultIdleInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.idleInterval <= 0 {
		return nil, fmt.Errorf("%w: idle interval must be positive", tmr.ErrInvalidParameter)
	}
	if c.maxAttempts < 0 {
		return nil, fmt.Errorf("%w: max attempts must not be negative", tmr.ErrInvalidParameter)
	}

	c.logf("new session for %s", c.cfg.URI())
	return c, nil
}

// ID returns the session id used in log lines
func (c *Controller) ID() string {
	return c.id
}

// Config returns a copy of the session's configuration
func (c *Controller) Config() DeviceConfig {
	return c.cfg.Clone()
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(next State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.CanTransition(next) {
		return fmt.Errorf("%w: cannot go from %s to %s", ErrInvalidState, c.state, next)
	}
	c.logf("state %s -> %s", c.state, next)
	c.state = next
	return nil
}

func (c *Controller) requireState(want State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != want {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, c.state, want)
	}
	return nil
}

func (c *Controller) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.console, format, args...)
}

func (c *Controller) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf("[session %.8s] "+format, append([]any{c.id}, args...)...)
	}
}

// Connect opens the reader. Timeouts are retried after the retry delay,
// forever unless WithMaxAttempts was given; any other error is returned
// as-is. Cancelling ctx aborts the loop.
func (c *Controller) Connect(ctx context.Context) error {
	if err := c.setState(StateConnecting); err != nil {
		return err
	}

	reader, err := transport.WithRetry(ctx, transport.RetryConfig{
		Description: "connect",
		MaxAttempts: c.maxAttempts,
		RetryDelay:  c.retryDelay,
		ShouldRetry: func(err error) bool {
			return tmr.Classify(err) == tmr.KindRetryable
		},
		OnRetry: func(attempt int, err error) error {
			c.printf("Timed out connecting: %v, retrying in %v\n", err, c.retryDelay)
			c.logf("connect attempt %d timed out: %v", attempt, err)
			return nil
		},
	}, func(ctx context.Context) (Reader, error) {
		c.printf("Connecting to Simultaneous RFID Reader on device: %s\n", c.cfg.DevicePath)
		return c.open(ctx, c.cfg.URI())
	})
	if err != nil {
		_ = c.setState(StateClosed)
		return err
	}

	c.reader = reader
	if err := c.setState(StateConnected); err != nil {
		return err
	}
	c.printf("Connected.\n")
	return nil
}

// Configure sets the region, then the read plan
func (c *Controller) Configure(ctx context.Context) error {
	if err := c.requireState(StateConnected); err != nil {
		return err
	}

	if err := c.reader.SetRegion(ctx, c.cfg.Region); err != nil {
		return fmt.Errorf("set region %s: %w", c.cfg.Region, err)
	}
	if err := c.reader.SetReadPlan(ctx, c.cfg.Antennas, c.cfg.Protocol); err != nil {
		return fmt.Errorf("set read plan %v %s: %w", c.cfg.Antennas, c.cfg.Protocol, err)
	}
	c.logf("configured region %s, antennas %v, protocol %s", c.cfg.Region, c.cfg.Antennas, c.cfg.Protocol)
	return nil
}

// Start starts asynchronous reading with the configured duty cycle.
// Detections are queued for RunUntilCancelled. The read loop outlives ctx
// and only ends with Shutdown.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.requireState(StateConnected); err != nil {
		return err
	}

	onTime := time.Duration(c.cfg.OnTimeMs) * time.Millisecond
	offTime := time.Duration(c.cfg.OffTimeMs) * time.Millisecond
	if err := c.reader.StartReading(context.WithoutCancel(ctx), c.deliver, onTime, offTime); err != nil {
		return fmt.Errorf("start reading: %w", err)
	}
	if err := c.setState(StateReading); err != nil {
		return err
	}
	c.readFailed = c.reader.ReadFailed()

	c.printf("Looking for RFID tags; Press Ctrl-C to exit\n")
	return nil
}

// deliver runs on the reader's goroutine. It gives up once shutdown has
// begun so a late callback cannot hold up StopReading.
func (c *Controller) deliver(d Detection) {
	select {
	case c.detections <- d:
	case <-c.done:
	}
}

// RunUntilCancelled prints detections as they arrive and a waiting line
// after every idle interval without one, until ctx is cancelled. If the
// read loop dies first its error is returned and the session is left for
// Shutdown or Close.
func (c *Controller) RunUntilCancelled(ctx context.Context) error {
	if err := c.requireState(StateReading); err != nil {
		return err
	}

	c.printf("Waiting for an RFID tag...\n")
	idle := time.NewTimer(c.idleInterval)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			c.printf("Ctrl-C pressed; Shutting down RFID reader.\n")
			return nil
		case d := <-c.detections:
			c.printDetection(d)
			idle.Reset(c.idleInterval)
		case err := <-c.readFailed:
			c.logf("read loop failed: %v", err)
			return fmt.Errorf("reading stopped: %w", err)
		case <-idle.C:
			c.printf("Waiting for an RFID tag...\n")
			idle.Reset(c.idleInterval)
		}
	}
}

func (c *Controller) printDetection(d Detection) {
	c.printf("Found a tag: %s\n", d.EPC)
	c.printf("  Signal strength = %d\n", d.RSSI)
}

// Shutdown stops the read loop and closes the reader. It returns
// tmr.ErrNotReading if Start has not succeeded; calling it again after
// that is a no-op.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	switch c.state {
	case StateReading:
	case StateShuttingDown, StateClosed:
		c.mu.Unlock()
		return nil
	default:
		c.mu.Unlock()
		return fmt.Errorf("shutdown: %w", tmr.ErrNotReading)
	}
	c.state = StateShuttingDown
	c.mu.Unlock()
	c.logf("state %s -> %s", StateReading, StateShuttingDown)

	close(c.done)

	if m, ok := c.reader.(interface{ Metrics() tmr.AsyncMetrics }); ok {
		stats := m.Metrics()
		c.logf("read loop: %d cycles, %d tags, %d errors", stats.Cycles, stats.TagsReported, stats.Errors)
	}

	var errs []error
	if err := c.reader.StopReading(); err != nil {
		errs = append(errs, fmt.Errorf("stop reading: %w", err))
	}
	if err := c.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close reader: %w", err))
	}
	_ = c.setState(StateClosed)
	return errors.Join(errs...)
}

// Close releases the reader after a failed Configure or Start. A reading
// session is shut down instead.
func (c *Controller) Close() error {
	if c.State() == StateReading {
		return c.Shutdown()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	if c.reader == nil {
		return nil
	}
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("close reader: %w", err)
	}
	return nil
}

// Run performs a whole session: connect, configure, start, wait for ctx
// to be cancelled, shut down
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	if err := c.Configure(ctx); err != nil {
		_ = c.Close()
		return err
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return err
	}
	if err := c.RunUntilCancelled(ctx); err != nil {
		_ = c.Close()
		return err
	}
	if err := c.Shutdown(); err != nil {
		return err
	}
	c.printf("Done.\n")
	return nil
}
