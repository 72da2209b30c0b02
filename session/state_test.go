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

package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "shutting down", StateShuttingDown.String())
	assert.Equal(t, "State(42)", State(42).String())
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to State
		want     bool
	}{
		{from: StateUninitialized, to: StateConnecting, want: true},
		{from: StateConnecting, to: StateConnected, want: true},
		{from: StateConnecting, to: StateClosed, want: true},
		{from: StateConnected, to: StateReading, want: true},
		{from: StateReading, to: StateShuttingDown, want: true},
		{from: StateShuttingDown, to: StateClosed, want: true},
		{from: StateUninitialized, to: StateReading, want: false},
		{from: StateConnected, to: StateShuttingDown, want: false},
		{from: StateReading, to: StateConnected, want: false},
		{from: StateClosed, to: StateConnecting, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
