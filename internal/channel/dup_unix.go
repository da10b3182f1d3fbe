// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package channel

import (
	"os"

	"golang.org/x/sys/unix"
)

// Dup returns a new [Handle] owning a duplicate of the descriptor. The
// duplicate has the close-on-exec flag set.
func (h *Handle) Dup() (*Handle, error) {
	var (
		newFD  int
		dupErr error
	)

	err := h.Control(func(fd uintptr) {
		newFD, dupErr = unix.FcntlInt(fd, unix.F_DUPFD_CLOEXEC, 0)
	})
	if err != nil {
		return nil, &Error{Op: "dup", Err: err}
	}

	if dupErr != nil {
		return nil, &Error{Op: "dup", Err: dupErr}
	}

	return NewHandle(os.NewFile(uintptr(newFD), h.Name())), nil
}
