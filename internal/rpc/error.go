// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"fmt"
)

// CallError is returned if a remote method call or property read failed or
// the peer rejected it.
type CallError struct {
	Object Object
	Method string
	Err    error
}

// Error implements the [error] interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("call %s.%s on %s: %v",
		e.Object.Interface, e.Method, e.Object.Path, e.Err)
}

// Is implements the [errors.Is] interface.
func (*CallError) Is(other error) bool {
	_, ok := other.(*CallError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *CallError) Unwrap() error {
	return e.Err
}

// ArgError is returned by [Arg] if a call argument is missing or has an
// unexpected type.
type ArgError struct {
	Member string
	Index  int
	Want   string
	Got    any
}

// Error implements the [error] interface.
func (e *ArgError) Error() string {
	if e.Got == nil {
		return fmt.Sprintf("%s: argument %d missing, want %s",
			e.Member, e.Index, e.Want)
	}

	return fmt.Sprintf("%s: argument %d has type %T, want %s",
		e.Member, e.Index, e.Got, e.Want)
}

// Is implements the [errors.Is] interface.
func (*ArgError) Is(other error) bool {
	_, ok := other.(*ArgError)
	return ok
}
