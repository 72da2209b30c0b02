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

package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tmr "github.com/ZaparooProject/go-tmr"
)

type fakeModule struct {
	err     error
	version *tmr.VersionInfo
	regions []tmr.Region
}

func (f *fakeModule) Version() *tmr.VersionInfo { return f.version }

func (f *fakeModule) SupportedRegions(context.Context) ([]tmr.Region, error) {
	return f.regions, f.err
}

func TestPrintModule(t *testing.T) {
	t.Parallel()

	m := &fakeModule{
		version: &tmr.VersionInfo{
			Hardware:  [4]byte{0x18, 0x00, 0x00, 0x02},
			Firmware:  [4]byte{0x01, 0x0B, 0x02, 0x00},
			Protocols: 0x10,
		},
		regions: []tmr.Region{tmr.RegionNA2, tmr.RegionEU3},
	}

	var out bytes.Buffer
	require.NoError(t, printModule(context.Background(), &out, m))
	assert.Equal(t,
		"Firmware: 01.0B.02.00\nHardware: 18.00.00.02\nGen2:     true\nRegions:  NA2, EU3\n",
		out.String())
}

func TestPrintModuleRegionError(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	var out bytes.Buffer
	err := printModule(context.Background(), &out, &fakeModule{err: errBoom})
	require.ErrorIs(t, err, errBoom)
}
