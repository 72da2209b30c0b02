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
)

// Transport errors
var (
	ErrTransportTimeout    = errors.New("transport timeout")
	ErrTransportRead       = errors.New("transport read failed")
	ErrTransportWrite      = errors.New("transport write failed")
	ErrTransportClosed     = errors.New("transport closed")
	ErrCommunicationFailed = errors.New("communication with module failed")
	ErrFrameCorrupted      = errors.New("frame corrupted")
	ErrChecksumMismatch    = errors.New("frame CRC mismatch")
)

// Device errors
var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInvalidResponse     = errors.New("invalid response from module")
	ErrDataTooLarge        = errors.New("data too large for a single frame")
	ErrUnsupportedRegion   = errors.New("unsupported region")
	ErrUnsupportedProtocol = errors.New("unsupported tag protocol")
	ErrNotInitialized      = errors.New("device not initialized")
	ErrAlreadyReading      = errors.New("asynchronous reading already running")
	ErrNotReading          = errors.New("asynchronous reading not running")
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on a later attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors mean the module did not answer in time
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError wraps a low-level error with the operation and port it
// happened on.
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError. Timeout and transient errors
// are marked retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a retryable timeout error for op on port.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// StatusError reports a non-zero status word returned by the module.
type StatusError struct {
	Opcode byte
	Status uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("module returned status 0x%04X for opcode 0x%02X", e.Status, e.Opcode)
}

// IsRetryable reports whether err is worth retrying at the transport level.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrCommunicationFailed),
		errors.Is(err, ErrFrameCorrupted),
		errors.Is(err, ErrChecksumMismatch):
		return true
	default:
		return false
	}
}

// GetErrorType returns the ErrorType of err.
func GetErrorType(err error) ErrorType {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	if IsTimeout(err) {
		return ErrorTypeTimeout
	}
	if IsRetryable(err) {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

// IsTimeout reports whether err means the module did not answer in time.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) && te.Type == ErrorTypeTimeout {
		return true
	}
	return errors.Is(err, ErrTransportTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// ErrorKind is the coarse classification used when opening a connection.
type ErrorKind int

const (
	// KindFatal errors are returned to the caller as-is.
	KindFatal ErrorKind = iota
	// KindRetryable errors are timeouts; the connection attempt can be repeated.
	KindRetryable
)

func (k ErrorKind) String() string {
	if k == KindRetryable {
		return "retryable"
	}
	return "fatal"
}

// Classify maps err onto an ErrorKind. Only timeout-class errors are
// retryable; cancellation is always fatal.
func Classify(err error) ErrorKind {
	if err == nil || errors.Is(err, context.Canceled) {
		return KindFatal
	}
	if IsTimeout(err) {
		return KindRetryable
	}
	return KindFatal
}
