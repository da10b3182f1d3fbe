// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

// ViolationError is returned to the peer for calls that do not match the
// protocol. It matches [ErrProtocolViolation] with [errors.Is].
type ViolationError struct {
	Member string
	Err    error
}

// Error implements the [error] interface.
func (e *ViolationError) Error() string {
	return ErrProtocolViolation.Error() + ": " + e.Member + ": " + e.Err.Error()
}

// Is implements the [errors.Is] interface.
func (*ViolationError) Is(other error) bool {
	_, ok := other.(*ViolationError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ViolationError) Unwrap() []error {
	return []error{ErrProtocolViolation, e.Err}
}
