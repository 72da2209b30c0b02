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
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-tmr/internal/config"
)

func TestFlagsApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		check   func(*testing.T, *config.Config)
		name    string
		args    []string
		wantErr bool
	}{
		{
			name: "no flags keeps config",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name: "all flags",
			args: []string{
				"-device", "/dev/ttyUSB1", "-region", "EU3", "-protocol", "gen2",
				"-antennas", "1,2", "-on", "500", "-off", "0", "-baud", "921600", "-debug",
			},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "/dev/ttyUSB1", cfg.Reader.DevicePath)
				assert.Equal(t, "EU3", cfg.Reader.Region)
				assert.Equal(t, "gen2", cfg.Reader.Protocol)
				assert.Equal(t, []int{1, 2}, cfg.Reader.Antennas)
				assert.Equal(t, 500, cfg.Reader.OnTimeMs)
				assert.Equal(t, 0, cfg.Reader.OffTimeMs)
				assert.Equal(t, 921600, cfg.Reader.BaudRate)
				assert.True(t, cfg.Debug)
			},
		},
		{
			name: "auto device clears path",
			args: []string{"-device", "auto"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Empty(t, cfg.Reader.DevicePath)
			},
		},
		{name: "bad antennas", args: []string{"-antennas", "one"}, wantErr: true},
		{name: "bad region", args: []string{"-region", "MOON"}, wantErr: true},
		{name: "bad baud", args: []string{"-baud", "1200"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fs.SetOutput(io.Discard)
			f, err := parseFlags(fs, tt.args)
			require.NoError(t, err)

			cfg := config.Default()
			err = f.apply(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestRunBadFlag(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"-no-such-flag"}, &out))
	assert.Empty(t, out.String())
}

func TestRunMissingConfig(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	code := run(context.Background(), []string{"-config", "testdata/missing.yaml"}, &out)
	assert.Equal(t, 1, code)
}
