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

import "fmt"

// State is where a session is in its lifecycle
type State int

// Session states, in lifecycle order
const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateReading
	StateShuttingDown
	StateClosed
)

var stateNames = [...]string{
	StateUninitialized: "uninitialized",
	StateConnecting:    "connecting",
	StateConnected:     "connected",
	StateReading:       "reading",
	StateShuttingDown:  "shutting down",
	StateClosed:        "closed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// transitions lists the states each state may move to. Any state may
// move to Closed when an operation fails.
var transitions = map[State][]State{
	StateUninitialized: {StateConnecting},
	StateConnecting:    {StateConnected, StateClosed},
	StateConnected:     {StateReading, StateClosed},
	StateReading:       {StateShuttingDown},
	StateShuttingDown:  {StateClosed},
}

// CanTransition reports whether a session may move from s to next
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
