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
	"fmt"
	"time"
)

// TransportContext defines the interface for communication with Mercury
// modules with context support for cancellation and timeouts.
type TransportContext interface {
	Transport

	// SendCommandContext sends a command to the module with context support
	SendCommandContext(ctx context.Context, opcode byte, args []byte) ([]byte, error)
}

// transportContextAdapter wraps a Transport to provide context support
type transportContextAdapter struct {
	Transport
	restoreTimeout time.Duration
}

// SendCommandContext implements TransportContext by using the context deadline
func (t *transportContextAdapter) SendCommandContext(ctx context.Context, opcode byte, args []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled before sending command: %w", ctx.Err())
	default:
	}

	// A deadline shorter than the transport timeout is pushed down so the
	// read gives up on its own instead of leaking the goroutine below.
	if deadline, ok := ctx.Deadline(); ok {
		if timeout := time.Until(deadline); timeout > 0 {
			defer func() {
				_ = t.SetTimeout(t.restoreTimeout)
			}()
			if err := t.SetTimeout(timeout); err != nil {
				return nil, err
			}
		}
	}

	type result struct {
		err  error
		data []byte
	}
	resultChan := make(chan result, 1)

	go func() {
		data, err := t.SendCommand(opcode, args)
		resultChan <- result{err, data}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled while waiting for command response: %w", ctx.Err())
	case res := <-resultChan:
		return res.data, res.err
	}
}

// timeoutReporter is implemented by transports that can say which
// timeout is currently set
type timeoutReporter interface {
	Timeout() time.Duration
}

// AsTransportContext converts a Transport to TransportContext. A pushed
// down deadline is undone by restoring the transport's own Timeout() when
// it has one, DefaultTimeout otherwise.
func AsTransportContext(t Transport) TransportContext {
	return asTransportContext(t, DefaultTimeout)
}

// asTransportContext is AsTransportContext with the timeout to restore
// when t cannot report its own
func asTransportContext(t Transport, fallback time.Duration) TransportContext {
	if tc, ok := t.(TransportContext); ok {
		return tc
	}
	restore := fallback
	if tr, ok := t.(timeoutReporter); ok {
		restore = tr.Timeout()
	}
	return &transportContextAdapter{Transport: t, restoreTimeout: restore}
}
