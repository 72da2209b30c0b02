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
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TagRead is one tag reported by the module during a search cycle
type TagRead struct {
	ReadAt    time.Time
	EPC       []byte
	Frequency uint32 // kHz
	Timestamp uint32 // ms since the search started
	RSSI      int    // dBm
	ReadCount int
	Antenna   int
	PC        uint16
	Phase     uint16
	Protocol  TagProtocol
}

// EPCString returns the EPC as upper-case hex
func (t TagRead) EPCString() string {
	return strings.ToUpper(hex.EncodeToString(t.EPC))
}

func (t TagRead) String() string {
	return fmt.Sprintf("EPC=%s RSSI=%d antenna=%d count=%d", t.EPCString(), t.RSSI, t.Antenna, t.ReadCount)
}

// metadataField describes one optional field in a tag buffer record, in
// the order the module emits them.
type metadataField struct {
	set  func(*TagRead, []byte)
	flag uint16
	size int
}

var metadataFields = []metadataField{
	{flag: metaReadCount, size: 1, set: func(t *TagRead, b []byte) { t.ReadCount = int(b[0]) }},
	{flag: metaRSSI, size: 1, set: func(t *TagRead, b []byte) { t.RSSI = int(int8(b[0])) }},
	{flag: metaAntennaID, size: 1, set: func(t *TagRead, b []byte) { t.Antenna = int(b[0] >> 4) }},
	{flag: metaFrequency, size: 3, set: func(t *TagRead, b []byte) {
		t.Frequency = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}},
	{flag: metaTimestamp, size: 4, set: func(t *TagRead, b []byte) { t.Timestamp = binary.BigEndian.Uint32(b) }},
	{flag: metaPhase, size: 2, set: func(t *TagRead, b []byte) { t.Phase = binary.BigEndian.Uint16(b) }},
	{flag: metaProtocol, size: 1, set: func(t *TagRead, b []byte) { t.Protocol = TagProtocol(b[0]) }},
}

// parseTagBuffer decodes a GetTagBuffer response:
// META(2) OPTION(1) COUNT(1) then COUNT records of metadata fields,
// EPC bit length(2) and PC(2)+EPC+CRC(2).
func parseTagBuffer(resp []byte, readAt time.Time) ([]TagRead, error) {
	if len(resp) < 4 {
		return nil, fmt.Errorf("%w: tag buffer response is %d bytes", ErrInvalidResponse, len(resp))
	}

	flags := binary.BigEndian.Uint16(resp[0:2])
	count := int(resp[3])
	pos := 4

	tags := make([]TagRead, 0, count)
	for i := 0; i < count; i++ {
		tag := TagRead{ReadAt: readAt}

		for _, field := range metadataFields {
			if flags&field.flag == 0 {
				continue
			}
			if pos+field.size > len(resp) {
				return nil, fmt.Errorf("%w: tag %d metadata truncated", ErrInvalidResponse, i)
			}
			field.set(&tag, resp[pos:pos+field.size])
			pos += field.size
		}

		if pos+2 > len(resp) {
			return nil, fmt.Errorf("%w: tag %d length missing", ErrInvalidResponse, i)
		}
		epcBytes := int(binary.BigEndian.Uint16(resp[pos:pos+2])) / 8
		pos += 2

		// PC and CRC frame the EPC.
		if epcBytes < 4 || pos+epcBytes > len(resp) {
			return nil, fmt.Errorf("%w: tag %d EPC length %d invalid", ErrInvalidResponse, i, epcBytes)
		}
		tag.PC = binary.BigEndian.Uint16(resp[pos : pos+2])
		tag.EPC = append([]byte(nil), resp[pos+2:pos+epcBytes-2]...)
		pos += epcBytes

		tags = append(tags, tag)
	}

	return tags, nil
}
