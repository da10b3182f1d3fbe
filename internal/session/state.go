// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

// State is the lifecycle state of a [Session].
type State int

// Session states.
const (
	Detached State = iota
	Attaching
	Attached
	Detaching
)

func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case Attaching:
		return "attaching"
	case Attached:
		return "attached"
	case Detaching:
		return "detaching"
	default:
		return "unknown"
	}
}
