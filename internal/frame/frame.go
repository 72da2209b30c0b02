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

package frame

import (
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrShortFrame     = errors.New("frame too short")
	ErrBadHeader      = errors.New("frame does not start with header byte")
	ErrLengthMismatch = errors.New("frame length does not match length byte")
	ErrCRCMismatch    = errors.New("frame CRC mismatch")
	ErrDataTooLarge   = errors.New("payload exceeds maximum frame data length")
)

// Response is a decoded module response.
type Response struct {
	Data   []byte
	Status uint16
	Opcode byte
}

// BuildCommand encodes opcode and data into a command frame:
// FF LEN OP DATA... CRChi CRClo.
func BuildCommand(opcode byte, data []byte) ([]byte, error) {
	if len(data) > MaxDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLarge, len(data))
	}

	buf := make([]byte, 0, len(data)+CommandOverhead)
	buf = append(buf, Header, byte(len(data)), opcode)
	buf = append(buf, data...)
	crc := CalculateCRC(buf[1:])
	return append(buf, byte(crc>>8), byte(crc)), nil
}

// BuildResponse encodes a response frame. Only used by tests and simulators.
func BuildResponse(opcode byte, status uint16, data []byte) ([]byte, error) {
	if len(data) > MaxDataLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrDataTooLarge, len(data))
	}

	buf := make([]byte, 0, len(data)+ResponseOverhead)
	buf = append(buf, Header, byte(len(data)), opcode, byte(status>>8), byte(status))
	buf = append(buf, data...)
	crc := CalculateCRC(buf[1:])
	return append(buf, byte(crc>>8), byte(crc)), nil
}

// ResponseLength returns the full length of a response frame whose length
// byte is dataLen.
func ResponseLength(dataLen byte) int {
	return int(dataLen) + ResponseOverhead
}

// ParseResponse decodes a complete response frame and verifies its CRC.
// A non-zero status is not an error here; callers decide what it means.
func ParseResponse(frame []byte) (*Response, error) {
	if len(frame) < ResponseOverhead {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame))
	}
	if frame[0] != Header {
		return nil, fmt.Errorf("%w: got 0x%02X", ErrBadHeader, frame[0])
	}

	want := ResponseLength(frame[1])
	if len(frame) != want {
		return nil, fmt.Errorf("%w: have %d bytes, length byte says %d", ErrLengthMismatch, len(frame), want)
	}

	body := frame[1 : len(frame)-2]
	got := uint16(frame[len(frame)-2])<<8 | uint16(frame[len(frame)-1])
	if crc := CalculateCRC(body); crc != got {
		return nil, fmt.Errorf("%w: calculated 0x%04X, frame has 0x%04X", ErrCRCMismatch, crc, got)
	}

	data := make([]byte, frame[1])
	copy(data, frame[ResponseHeaderLen:ResponseHeaderLen+int(frame[1])])

	return &Response{
		Opcode: frame[2],
		Status: uint16(frame[3])<<8 | uint16(frame[4]),
		Data:   data,
	}, nil
}

// ParseCommand decodes a command frame and verifies its CRC. Used by
// simulators that stand in for a module.
func ParseCommand(frame []byte) (opcode byte, data []byte, err error) {
	if len(frame) < CommandOverhead {
		return 0, nil, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(frame))
	}
	if frame[0] != Header {
		return 0, nil, fmt.Errorf("%w: got 0x%02X", ErrBadHeader, frame[0])
	}
	if want := int(frame[1]) + CommandOverhead; len(frame) != want {
		return 0, nil, fmt.Errorf("%w: have %d bytes, length byte says %d", ErrLengthMismatch, len(frame), want)
	}

	got := uint16(frame[len(frame)-2])<<8 | uint16(frame[len(frame)-1])
	if crc := CalculateCRC(frame[1 : len(frame)-2]); crc != got {
		return 0, nil, fmt.Errorf("%w: calculated 0x%04X, frame has 0x%04X", ErrCRCMismatch, crc, got)
	}
	return frame[2], append([]byte(nil), frame[3:3+int(frame[1])]...), nil
}
