// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build windows

package channel

import (
	"os"

	"golang.org/x/sys/windows"
)

// Dup returns a new [Handle] owning a duplicate of the handle within the
// current process.
func (h *Handle) Dup() (*Handle, error) {
	var (
		newHandle windows.Handle
		dupErr    error
	)

	err := h.Control(func(fd uintptr) {
		process := windows.CurrentProcess()
		dupErr = windows.DuplicateHandle(
			process,
			windows.Handle(fd),
			process,
			&newHandle,
			0,
			false,
			windows.DUPLICATE_SAME_ACCESS,
		)
	})
	if err != nil {
		return nil, &Error{Op: "dup", Err: err}
	}

	if dupErr != nil {
		return nil, &Error{Op: "dup", Err: dupErr}
	}

	return NewHandle(os.NewFile(uintptr(newHandle), h.Name())), nil
}
