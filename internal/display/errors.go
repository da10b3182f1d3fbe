// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "errors"

var (
	// ErrNotFound is returned if the display server does not provide the
	// requested object.
	ErrNotFound = errors.New("object not found")

	// ErrUnexpectedSignal is returned if a signal body does not match the
	// signature of the signal.
	ErrUnexpectedSignal = errors.New("unexpected signal body")
)
