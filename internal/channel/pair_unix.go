// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package channel

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// Pair creates a connected bidirectional stream pair.
//
// The local end is supposed to be kept, the remote end is supposed to be
// handed to the peer with a [Passer] and closed afterwards.
func Pair() (*Handle, *Handle, error) {
	// Hold the fork lock so no child inherits the descriptors before
	// close-on-exec is set. Not all platforms support SOCK_CLOEXEC.
	syscall.ForkLock.RLock()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err == nil {
		unix.CloseOnExec(fds[0])
		unix.CloseOnExec(fds[1])
	}

	syscall.ForkLock.RUnlock()

	if err != nil {
		return nil, nil, &Error{Op: "socketpair", Err: err}
	}

	// Non-blocking descriptors are registered with the runtime poller, so
	// closing a handle interrupts pending reads.
	for _, fd := range fds {
		err := unix.SetNonblock(fd, true)
		if err != nil {
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])

			return nil, nil, &Error{Op: "set nonblock", Err: err}
		}
	}

	local := NewHandle(os.NewFile(uintptr(fds[0]), "channel-local"))
	remote := NewHandle(os.NewFile(uintptr(fds[1]), "channel-remote"))

	return local, remote, nil
}
