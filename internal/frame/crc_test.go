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

import "testing"

func TestCalculateCRC(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{
			name: "empty data",
			data: []byte{},
			want: 0xFFFF,
		},
		{
			name: "get version command",
			data: []byte{0x00, 0x03},
			want: 0x1D0C,
		},
		{
			name: "set region NA2",
			data: []byte{0x01, 0x97, 0x0D},
			want: 0x4BB0,
		},
		{
			name: "clear tag buffer",
			data: []byte{0x00, 0x2A},
			want: 0x1D25,
		},
		{
			name: "ascii check string",
			data: []byte("123456789"),
			want: 0xA69D,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CalculateCRC(tt.data); got != tt.want {
				t.Errorf("CalculateCRC() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}
