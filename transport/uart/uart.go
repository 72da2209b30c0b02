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

// Package uart implements the Mercury serial transport over a UART.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"go.bug.st/serial"

	tmr "github.com/ZaparooProject/go-tmr"
	"github.com/ZaparooProject/go-tmr/internal/frame"
)

// DefaultBaudRate is the rate Mercury modules use out of reset
const DefaultBaudRate = 115200

// readChunkTimeout bounds each blocking read so context cancellation is
// noticed promptly.
const readChunkTimeout = 50 * time.Millisecond

// SupportedBaudRates lists the rates Mercury modules accept
var SupportedBaudRates = []int{9600, 19200, 38400, 115200, 230400, 460800, 921600}

// port is the part of serial.Port the transport uses
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Transport implements tmr.Transport over a serial port
type Transport struct {
	port     port
	portName string
	timeout  time.Duration
	mu       sync.Mutex
}

// Option configures the transport
type Option func(*options)

type options struct {
	baudRate int
}

// WithBaudRate sets the serial baud rate
func WithBaudRate(rate int) Option {
	return func(o *options) {
		o.baudRate = rate
	}
}

// New opens portName and returns a transport for it
func New(portName string, opts ...Option) (*Transport, error) {
	o := options{baudRate: DefaultBaudRate}
	for _, opt := range opts {
		opt(&o)
	}
	if !IsSupportedBaudRate(o.baudRate) {
		return nil, fmt.Errorf("%w: baud rate %d not supported", tmr.ErrInvalidParameter, o.baudRate)
	}

	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: o.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, classifyOpenError(portName, err)
	}

	t := newWithPort(p, portName)
	if err := p.SetReadTimeout(readChunkTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		tmr.Debugf("reset input buffer on %s: %v", portName, err)
	}
	return t, nil
}

func newWithPort(p port, portName string) *Transport {
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  tmr.DefaultTimeout,
	}
}

// IsSupportedBaudRate reports whether rate is one of SupportedBaudRates
func IsSupportedBaudRate(rate int) bool {
	for _, r := range SupportedBaudRates {
		if r == rate {
			return true
		}
	}
	return false
}

func classifyOpenError(portName string, err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortNotFound:
			return tmr.NewTransportError("open", portName, tmr.ErrDeviceNotFound, tmr.ErrorTypePermanent)
		case serial.PortBusy:
			return tmr.NewTransportError("open", portName, err, tmr.ErrorTypeTransient)
		default:
			return tmr.NewTransportError("open", portName, err, tmr.ErrorTypePermanent)
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return tmr.NewTransportError("open", portName,
			fmt.Errorf("%w: %w", tmr.ErrDeviceNotFound, err), tmr.ErrorTypePermanent)
	}
	return tmr.NewTransportError("open", portName, err, tmr.ErrorTypePermanent)
}

// SendCommand sends a command and waits up to the transport timeout for
// the response
func (t *Transport) SendCommand(opcode byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	timeout := t.timeout
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return t.SendCommandContext(ctx, opcode, args)
}

// SendCommandContext sends a command and waits for the response until ctx
// is done. A ctx without a deadline gets the transport timeout; a ctx
// deadline wins even when it is later, since ReadTagMultiple only answers
// after its search time.
func (t *Transport) SendCommandContext(ctx context.Context, opcode byte, args []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil, tmr.NewTransportError("send", t.portName, tmr.ErrTransportClosed, tmr.ErrorTypePermanent)
	}

	cmd, err := frame.BuildCommand(opcode, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tmr.ErrDataTooLarge, err)
	}

	if err := t.port.ResetInputBuffer(); err != nil {
		tmr.Debugf("reset input buffer: %v", err)
	}

	tmr.Debugf("uart tx % X", cmd)
	if _, err := t.port.Write(cmd); err != nil {
		return nil, tmr.NewTransportError("write", t.portName,
			fmt.Errorf("%w: %w", tmr.ErrTransportWrite, err), tmr.ErrorTypeTransient)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(t.timeout)
	}

	raw, err := t.readFrame(ctx, deadline)
	if err != nil {
		return nil, err
	}
	tmr.Debugf("uart rx % X", raw)

	resp, err := frame.ParseResponse(raw)
	if err != nil {
		if errors.Is(err, frame.ErrCRCMismatch) {
			return nil, tmr.NewTransportError("read", t.portName,
				fmt.Errorf("%w: %w", tmr.ErrChecksumMismatch, err), tmr.ErrorTypeTransient)
		}
		return nil, tmr.NewTransportError("read", t.portName,
			fmt.Errorf("%w: %w", tmr.ErrFrameCorrupted, err), tmr.ErrorTypeTransient)
	}

	if resp.Opcode != opcode {
		return nil, tmr.NewTransportError("read", t.portName,
			fmt.Errorf("%w: response opcode 0x%02X for command 0x%02X", tmr.ErrFrameCorrupted, resp.Opcode, opcode),
			tmr.ErrorTypeTransient)
	}
	if resp.Status != tmr.StatusOK {
		return nil, &tmr.StatusError{Opcode: opcode, Status: resp.Status}
	}
	return resp.Data, nil
}

// readFrame reads one response frame, skipping any bytes before the header.
func (t *Transport) readFrame(ctx context.Context, deadline time.Time) ([]byte, error) {
	buf := make([]byte, 0, frame.ResponseOverhead+frame.MaxDataLength)
	chunk := make([]byte, 64)
	want := frame.ResponseHeaderLen

	for len(buf) < want {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, tmr.NewTimeoutError("read", t.portName)
		}

		n, err := t.port.Read(chunk[:min(len(chunk), want-len(buf))])
		if err != nil {
			return nil, tmr.NewTransportError("read", t.portName,
				fmt.Errorf("%w: %w", tmr.ErrTransportRead, err), tmr.ErrorTypeTransient)
		}
		if n == 0 {
			continue
		}

		buf = append(buf, chunk[:n]...)
		buf = dropUntilHeader(buf)
		if len(buf) >= 2 {
			want = frame.ResponseLength(buf[1])
		}
	}

	return buf, nil
}

func dropUntilHeader(buf []byte) []byte {
	for i, b := range buf {
		if b == frame.Header {
			return buf[i:]
		}
	}
	return buf[:0]
}

// SetTimeout sets the response timeout
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", tmr.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close closes the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true while the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() tmr.TransportType {
	return tmr.TransportUART
}

// PortName returns the serial port the transport was opened on
func (t *Transport) PortName() string {
	return t.portName
}
