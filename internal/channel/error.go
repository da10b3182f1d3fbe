// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package channel

// Error wraps failures of local channel operations, like stream pair creation
// or descriptor duplication. Those are local resource problems. An attach
// attempt failing with it may be retried.
type Error struct {
	Op  string
	Err error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return "channel " + e.Op + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *Error) Unwrap() error {
	return e.Err
}
