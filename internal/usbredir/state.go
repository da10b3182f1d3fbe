// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package usbredir

// State is the state of a device bridge.
type State int32

// Bridge states.
const (
	Idle State = iota
	Bridging
	ShuttingDown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Bridging:
		return "bridging"
	case ShuttingDown:
		return "shutting down"
	default:
		return "unknown"
	}
}
