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
	"fmt"
	"time"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithRetryConfig sets the retry configuration for the device
func WithRetryConfig(config *RetryConfig) Option {
	return func(d *Device) error {
		if config == nil {
			return fmt.Errorf("%w: nil retry config", ErrInvalidParameter)
		}
		d.SetRetryConfig(config)
		return nil
	}
}

// WithTimeout sets the default timeout for device operations
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		return d.SetTimeout(timeout)
	}
}

// WithMaxRetries sets the maximum number of attempts for transport commands
func WithMaxRetries(maxAttempts int) Option {
	return func(d *Device) error {
		cfg := *d.retryConfig()
		cfg.MaxAttempts = maxAttempts
		d.SetRetryConfig(&cfg)
		return nil
	}
}

// WithRetryBackoff sets the initial backoff duration for retries
func WithRetryBackoff(initialBackoff time.Duration) Option {
	return func(d *Device) error {
		cfg := *d.retryConfig()
		cfg.InitialBackoff = initialBackoff
		d.SetRetryConfig(&cfg)
		return nil
	}
}

func (d *Device) retryConfig() *RetryConfig {
	if d.config.RetryConfig == nil {
		d.config.RetryConfig = DefaultRetryConfig()
	}
	return d.config.RetryConfig
}
