// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"flag"
	"fmt"
)

var (
	// ErrHelp is returned when help or the version is requested.
	ErrHelp = flag.ErrHelp

	ErrReadBuildInfo = errors.New("failed to read build info")

	// ErrNoClipboardData is the answer to guest clipboard requests. The
	// command has no clipboard content of its own.
	ErrNoClipboardData = errors.New("no clipboard data")

	// ErrNothingToAttach is returned if all listeners are disabled.
	ErrNothingToAttach = errors.New("nothing to attach")
)

// ParseArgsError wraps errors that occur during argument parsing.
type ParseArgsError struct {
	err error
	msg string
}

func (e *ParseArgsError) Error() string {
	if e.err == nil {
		return e.msg
	}

	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *ParseArgsError) Is(other error) bool {
	_, ok := other.(*ParseArgsError)
	return ok
}

func (e *ParseArgsError) Unwrap() error {
	return e.err
}

// DisconnectedError is returned if the display server ends a listener
// session.
type DisconnectedError struct {
	Service string
	Err     error
}

func (e *DisconnectedError) Error() string {
	return e.Service + " disconnected: " + e.Err.Error()
}

func (e *DisconnectedError) Is(other error) bool {
	_, ok := other.(*DisconnectedError)
	return ok
}

func (e *DisconnectedError) Unwrap() error {
	return e.Err
}
