// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build windows

package channel

import (
	"net"
	"os"
	"path/filepath"
)

// Pair creates a connected bidirectional stream pair.
//
// Windows has no socketpair, so the pair is created by connecting to an
// AF_UNIX listener on a temporary socket path. The path is removed before
// Pair returns. Both ends are backed by connections, see [NewConnHandle].
func Pair() (*Handle, *Handle, error) {
	dir, err := os.MkdirTemp("", "qemu-display-")
	if err != nil {
		return nil, nil, &Error{Op: "socketpair", Err: err}
	}

	defer os.RemoveAll(dir)

	addr := &net.UnixAddr{Name: filepath.Join(dir, "pair"), Net: "unix"}

	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, nil, &Error{Op: "listen", Err: err}
	}

	defer listener.Close()

	type accepted struct {
		conn *net.UnixConn
		err  error
	}

	acceptCh := make(chan accepted, 1)

	go func() {
		conn, err := listener.AcceptUnix()
		acceptCh <- accepted{conn, err}
	}()

	remote, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		_ = listener.Close()

		if res := <-acceptCh; res.conn != nil {
			_ = res.conn.Close()
		}

		return nil, nil, &Error{Op: "connect", Err: err}
	}

	res := <-acceptCh
	if res.err != nil {
		_ = remote.Close()
		return nil, nil, &Error{Op: "accept", Err: res.err}
	}

	return NewConnHandle(res.conn), NewConnHandle(remote), nil
}
