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

package testing

import (
	"encoding/binary"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/ZaparooProject/go-tmr/internal/frame"
)

// Status words the simulator answers with besides those in responses.go
const (
	statusInvalidOpcode uint16 = 0x0101
	statusWrongProgram  uint16 = 0x0105
)

// VirtualModule simulates a Mercury module behind a serial port. It
// implements the Read/Write/Close/SetReadTimeout/ResetInputBuffer surface
// the UART transport drives, decoding each written command frame and
// queueing the response for the next reads.
type VirtualModule struct {
	forced      map[byte]uint16
	silent      map[byte]bool
	rx          []byte
	garbage     []byte
	regions     []byte
	antennas    []byte
	tags        []*VirtualTag
	buffered    []*VirtualTag
	commands    []byte
	readyAt     time.Time
	readTimeout time.Duration
	mu          sync.Mutex
	program     byte
	region      byte
	protocol    byte
	corruptNext bool
	timedSearch bool
	closed      bool
}

// NewVirtualModule creates a module running its application firmware and
// supporting the NA2, EU3 and open regions
func NewVirtualModule() *VirtualModule {
	return &VirtualModule{
		forced:      make(map[byte]uint16),
		silent:      make(map[byte]bool),
		regions:     []byte{0x0D, 0x08, 0xFF},
		program:     ProgramApp,
		readTimeout: 5 * time.Millisecond,
	}
}

// StartInBootloader makes the module report the bootloader until it
// receives BootFirmware
func (m *VirtualModule) StartInBootloader() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.program = ProgramBootloader
}

// AddTag places a tag in the field
func (m *VirtualModule) AddTag(tag *VirtualTag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = append(m.tags, tag)
}

// RemoveTags takes every tag out of the field
func (m *VirtualModule) RemoveTags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags = nil
}

// SetStatus forces opcode to be answered with status
func (m *VirtualModule) SetStatus(opcode byte, status uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forced[opcode] = status
}

// SetSilent stops the module answering opcode
func (m *VirtualModule) SetSilent(opcode byte, silent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silent[opcode] = silent
}

// SetTimedSearch makes ReadTagMultiple answer only after the search time
// it was given, as real hardware does
func (m *VirtualModule) SetTimedSearch(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timedSearch = enabled
}

// InjectGarbage queues bytes that precede the next response
func (m *VirtualModule) InjectGarbage(b []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.garbage = append(m.garbage, b...)
}

// CorruptNextResponse flips a CRC bit in the next response
func (m *VirtualModule) CorruptNextResponse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.corruptNext = true
}

// Commands returns the opcodes received so far, in order
func (m *VirtualModule) Commands() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.commands)
}

// Region returns the region code last set
func (m *VirtualModule) Region() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.region
}

// Protocol returns the tag protocol code last set
func (m *VirtualModule) Protocol() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.protocol
}

// Antennas returns the raw SetAntennaPort arguments last received
func (m *VirtualModule) Antennas() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.antennas)
}

// IsClosed reports whether Close was called
func (m *VirtualModule) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Write decodes one command frame and queues the module's answer
func (m *VirtualModule) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, io.ErrClosedPipe
	}

	opcode, data, err := frame.ParseCommand(p)
	if err != nil {
		// A real module ignores frames it cannot decode.
		return len(p), nil //nolint:nilerr // dropped like on the wire
	}
	m.commands = append(m.commands, opcode)

	if m.silent[opcode] {
		return len(p), nil
	}

	status, payload := m.handle(opcode, data)
	if forced, ok := m.forced[opcode]; ok {
		status, payload = forced, nil
	}

	resp, err := frame.BuildResponse(opcode, status, payload)
	if err != nil {
		return 0, err
	}
	if m.corruptNext {
		resp[len(resp)-1] ^= 0x01
		m.corruptNext = false
	}

	if opcode == CmdReadTagMultiple && m.timedSearch && len(data) >= 2 {
		ms := time.Duration(binary.BigEndian.Uint16(data[len(data)-2:]))
		m.readyAt = time.Now().Add(ms * time.Millisecond)
	}

	m.rx = append(m.rx, m.garbage...)
	m.garbage = nil
	m.rx = append(m.rx, resp...)
	return len(p), nil
}

func (m *VirtualModule) handle(opcode byte, data []byte) (uint16, []byte) {
	switch opcode {
	case CmdGetCurrentProgram:
		return StatusOK, BuildCurrentProgramResponse(m.program)
	case CmdBootFirmware:
		if m.program != ProgramBootloader {
			return statusWrongProgram, nil
		}
		m.program = ProgramApp
		return StatusOK, nil
	case CmdGetVersion:
		return StatusOK, BuildVersionResponse()
	}

	if m.program != ProgramApp {
		return statusWrongProgram, nil
	}

	switch opcode {
	case CmdGetAvailableRegions:
		return StatusOK, BuildAvailableRegionsResponse(m.regions...)
	case CmdSetRegion:
		if len(data) != 1 || !slices.Contains(m.regions, data[0]) {
			return StatusInvalidRegn, nil
		}
		m.region = data[0]
		return StatusOK, nil
	case CmdSetTagProtocol:
		if len(data) != 2 {
			return statusInvalidOpcode, nil
		}
		m.protocol = data[1]
		return StatusOK, nil
	case CmdSetAntennaPort:
		m.antennas = slices.Clone(data)
		return StatusOK, nil
	case CmdReadTagMultiple:
		return m.search()
	case CmdGetTagBuffer:
		if len(m.buffered) == 0 {
			return StatusNoTagsFound, nil
		}
		resp := BuildTagBufferResponse(m.buffered...)
		m.buffered = nil
		return StatusOK, resp
	case CmdClearTagBuffer:
		m.buffered = nil
		return StatusOK, nil
	default:
		return statusInvalidOpcode, nil
	}
}

func (m *VirtualModule) search() (uint16, []byte) {
	for _, tag := range m.tags {
		if tag.Present {
			m.buffered = append(m.buffered, tag)
		}
	}
	if len(m.buffered) == 0 {
		return StatusNoTagsFound, nil
	}
	return StatusOK, BuildReadTagMultipleResponse(len(m.buffered))
}

// Read returns queued response bytes, or (0, nil) after the read timeout
// when none are waiting, as a serial port does
func (m *VirtualModule) Read(p []byte) (int, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if len(m.rx) == 0 || time.Now().Before(m.readyAt) {
		wait := m.readTimeout
		if len(m.rx) > 0 {
			wait = min(wait, time.Until(m.readyAt))
		}
		m.mu.Unlock()
		time.Sleep(wait)
		return 0, nil
	}
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	m.mu.Unlock()
	return n, nil
}

// SetReadTimeout sets how long Read waits when no bytes are queued
func (m *VirtualModule) SetReadTimeout(t time.Duration) error {
	if t < 0 {
		return errors.New("negative read timeout")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readTimeout = min(t, 5*time.Millisecond)
	return nil
}

// ResetInputBuffer drops queued response bytes
func (m *VirtualModule) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = nil
	m.readyAt = time.Time{}
	return nil
}

// Close closes the simulated port
func (m *VirtualModule) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
