// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !unix && !windows

package channel

import "errors"

// Pair creates a connected bidirectional stream pair. It is not supported on
// this platform.
func Pair() (*Handle, *Handle, error) {
	return nil, nil, &Error{Op: "socketpair", Err: errors.ErrUnsupported}
}
