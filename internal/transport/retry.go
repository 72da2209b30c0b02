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

// Package transport provides internal connection utilities
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryOperation is one attempt at an operation that may be retried
type RetryOperation[T any] func(ctx context.Context) (T, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	// ShouldRetry decides whether an error is worth another attempt. A nil
	// ShouldRetry never retries.
	ShouldRetry func(err error) bool
	// OnRetry runs after a failed attempt, before the delay. Returning an
	// error stops retrying with that error.
	OnRetry func(attempt int, err error) error
	// Description names the operation in errors
	Description string
	// MaxAttempts bounds the number of attempts; 0 retries forever
	MaxAttempts int
	// RetryDelay is the fixed wait between attempts
	RetryDelay time.Duration
}

// ErrRetriesExhausted is wrapped into the error returned when MaxAttempts
// attempts all failed with retryable errors
var ErrRetriesExhausted = errors.New("retries exhausted")

// WithRetry runs operation until it succeeds, fails with an error
// ShouldRetry rejects, runs out of attempts or ctx is done. The wait
// between attempts is fixed.
func WithRetry[T any](ctx context.Context, config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s cancelled: %w", config.Description, err)
		}

		result, err := operation(ctx)
		if err == nil {
			return result, nil
		}
		if config.ShouldRetry == nil || !config.ShouldRetry(err) {
			return zero, err
		}
		if config.MaxAttempts > 0 && attempt >= config.MaxAttempts {
			return zero, fmt.Errorf("%s: %w after %d attempts: %w", config.Description, ErrRetriesExhausted, attempt, err)
		}

		if config.OnRetry != nil {
			if cbErr := config.OnRetry(attempt, err); cbErr != nil {
				return zero, cbErr
			}
		}

		if err := sleepContext(ctx, config.RetryDelay); err != nil {
			return zero, fmt.Errorf("%s cancelled: %w", config.Description, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
