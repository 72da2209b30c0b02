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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want Region
	}{
		{code: "NA", want: RegionNA},
		{code: "NA2", want: RegionNA2},
		{code: " na3 ", want: RegionNA3},
		{code: "EU3", want: RegionEU3},
		{code: "PRC2", want: RegionPRC2},
		{code: "open", want: RegionOpen},
	}
	for _, tt := range tests {
		got, err := ParseRegion(tt.code)
		require.NoError(t, err, tt.code)
		assert.Equal(t, tt.want, got, tt.code)
	}

	_, err := ParseRegion("XX")
	require.ErrorIs(t, err, ErrUnsupportedRegion)
}

func TestRegionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "NA2", RegionNA2.String())
	assert.Equal(t, "Region(0x42)", Region(0x42).String())
}

func TestRegionCodes(t *testing.T) {
	t.Parallel()

	codes := RegionCodes()
	assert.Len(t, codes, 16)
	assert.IsNonDecreasing(t, codes)
	assert.Contains(t, codes, "NA2")
}

func TestParseProtocol(t *testing.T) {
	t.Parallel()

	p, err := ParseProtocol("gen2")
	require.NoError(t, err)
	assert.Equal(t, ProtocolGen2, p)
	assert.Equal(t, "GEN2", p.String())

	_, err = ParseProtocol("ISO14443A")
	require.ErrorIs(t, err, ErrUnsupportedProtocol)
	assert.Equal(t, "TagProtocol(0x42)", TagProtocol(0x42).String())
}
