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
	"sync"
	"time"
)

// MockCall records one command sent through a MockTransport
type MockCall struct {
	Args   []byte
	Opcode byte
}

// MockTransport is a scriptable Transport for tests. Responses and errors
// are configured per opcode; every call is recorded.
type MockTransport struct {
	responses map[byte][]byte
	errs      map[byte]error
	callCount map[byte]int
	delays    map[byte]time.Duration
	calls     []MockCall
	delay     time.Duration
	timeout   time.Duration
	mu        sync.Mutex
	closed    bool
}

// NewMockTransport creates a connected mock transport with no responses
func NewMockTransport() *MockTransport {
	return &MockTransport{
		responses: make(map[byte][]byte),
		errs:      make(map[byte]error),
		callCount: make(map[byte]int),
		delays:    make(map[byte]time.Duration),
		timeout:   DefaultTimeout,
	}
}

// SetResponse configures the payload returned for opcode
func (m *MockTransport) SetResponse(opcode byte, resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[opcode] = append([]byte(nil), resp...)
}

// SetError makes opcode fail with err. It takes precedence over a response.
func (m *MockTransport) SetError(opcode byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[opcode] = err
}

// ClearError removes an error set with SetError
func (m *MockTransport) ClearError(opcode byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errs, opcode)
}

// SetDelay makes every command take d before answering
func (m *MockTransport) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// SetOpcodeDelay makes opcode take d before answering, overriding SetDelay
func (m *MockTransport) SetOpcodeDelay(opcode byte, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[opcode] = d
}

// GetCallCount returns how many times opcode was sent
func (m *MockTransport) GetCallCount(opcode byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount[opcode]
}

// Calls returns every command sent so far, in order
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// Opcodes returns the opcodes sent so far, in order
func (m *MockTransport) Opcodes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]byte, 0, len(m.calls))
	for _, c := range m.calls {
		ops = append(ops, c.Opcode)
	}
	return ops
}

// SendCommand answers with the configured response or error
func (m *MockTransport) SendCommand(opcode byte, args []byte) ([]byte, error) {
	return m.SendCommandContext(context.Background(), opcode, args)
}

// SendCommandContext is SendCommand with the delay cut short by ctx
func (m *MockTransport) SendCommandContext(ctx context.Context, opcode byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrTransportClosed
	}
	m.calls = append(m.calls, MockCall{Opcode: opcode, Args: append([]byte(nil), args...)})
	m.callCount[opcode]++
	delay := m.delay
	if d, ok := m.delays[opcode]; ok {
		delay = d
	}
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errs[opcode]; ok {
		return nil, err
	}
	resp, ok := m.responses[opcode]
	if !ok {
		return nil, fmt.Errorf("%w: no mock response for opcode 0x%02X", ErrCommunicationFailed, opcode)
	}
	return append([]byte(nil), resp...), nil
}

// Close marks the transport closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout records the timeout
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Timeout returns the last timeout set
func (m *MockTransport) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// IsConnected returns false once closed
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// BlockingMockTransport blocks every command until Unblock or Close is
// called. Used to test cancellation and shutdown while a command is in
// flight.
type BlockingMockTransport struct {
	blockChan    chan struct{}
	ResponseFunc func(opcode byte, args []byte) ([]byte, error)
	timeout      time.Duration
	mu           sync.Mutex
	closed       bool
}

// NewBlockingMockTransport creates a new blocking mock transport
func NewBlockingMockTransport() *BlockingMockTransport {
	return &BlockingMockTransport{
		blockChan: make(chan struct{}),
		timeout:   5 * time.Second,
	}
}

// SendCommand blocks until Unblock() is called, the timeout expires, or
// the transport is closed
func (m *BlockingMockTransport) SendCommand(opcode byte, args []byte) ([]byte, error) {
	m.mu.Lock()
	blockChan := m.blockChan
	closed := m.closed
	timeout := m.timeout
	m.mu.Unlock()

	if closed {
		return nil, ErrTransportClosed
	}

	select {
	case <-blockChan:
	case <-time.After(timeout):
		return nil, NewTimeoutError("SendCommand", "mock")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrTransportClosed
	}
	if m.ResponseFunc != nil {
		return m.ResponseFunc(opcode, args)
	}
	return nil, nil
}

// Unblock allows blocked SendCommand calls to proceed
func (m *BlockingMockTransport) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.blockChan)
		m.blockChan = make(chan struct{})
	}
}

// Close unblocks all operations and marks the transport closed
func (m *BlockingMockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.blockChan)
	}
	return nil
}

// SetResponseFunc configures the answer given once a call is unblocked
func (m *BlockingMockTransport) SetResponseFunc(fn func(opcode byte, args []byte) ([]byte, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseFunc = fn
}

// SetTimeout configures how long a call blocks before timing out
func (m *BlockingMockTransport) SetTimeout(timeout time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// IsConnected returns false once closed
func (m *BlockingMockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*BlockingMockTransport) Type() TransportType {
	return TransportMock
}
