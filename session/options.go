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
	"io"
	"log"
	"time"
)

// Option configures a Controller
type Option func(*Controller)

// WithConsole sets where operator-facing lines are printed. Defaults to
// os.Stdout.
func WithConsole(w io.Writer) Option {
	return func(c *Controller) {
		c.console = w
	}
}

// WithLogger sets the logger for diagnostic lines. Defaults to the
// standard logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithRetryDelay sets the wait between connection attempts
func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.retryDelay = d
	}
}

// WithMaxAttempts bounds connection attempts. 0, the default, retries
// timeouts forever.
func WithMaxAttempts(n int) Option {
	return func(c *Controller) {
		c.maxAttempts = n
	}
}

// WithIdleInterval sets how long the idle wait goes without a detection
// before printing that it is still waiting
func WithIdleInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.idleInterval = d
	}
}
