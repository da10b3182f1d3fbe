// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package channel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
)

// Handle owns exactly one descriptor.
//
// Close releases the descriptor. It is safe to call it multiple times and
// from multiple goroutines, the descriptor is closed only once. Operations on a
// closed Handle fail with [os.ErrClosed].
//
// A Handle is backed either by a file or, where sockets can not be used as
// files, by a socket connection.
type Handle struct {
	file *os.File
	conn net.Conn

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// NewHandle takes ownership of the given file.
func NewHandle(file *os.File) *Handle {
	return &Handle{file: file}
}

// NewConnHandle takes ownership of the given socket connection. The
// connection must implement [syscall.Conn].
func NewConnHandle(conn net.Conn) *Handle {
	return &Handle{conn: conn}
}

// Name returns the name of the underlying file or the local address of the
// connection.
func (h *Handle) Name() string {
	if h.conn != nil {
		return h.conn.LocalAddr().String()
	}

	return h.file.Name()
}

// Closed reports whether [Handle.Close] has been called.
func (h *Handle) Closed() bool {
	return h.closed.Load()
}

// Control calls fn with the raw descriptor. The descriptor is only valid
// during the call and must not be closed by fn.
func (h *Handle) Control(fn func(fd uintptr)) error {
	if h.closed.Load() {
		return os.ErrClosed
	}

	var source syscall.Conn = h.file

	if h.conn != nil {
		sysConn, ok := h.conn.(syscall.Conn)
		if !ok {
			return fmt.Errorf("syscall conn: %w", errors.ErrUnsupported)
		}

		source = sysConn
	}

	rawConn, err := source.SyscallConn()
	if err != nil {
		return fmt.Errorf("syscall conn: %w", err)
	}

	err = rawConn.Control(fn)
	if err != nil {
		return fmt.Errorf("control: %w", err)
	}

	return nil
}

// File returns the underlying file. It stays owned by the Handle. It is nil
// for handles backed by a connection.
func (h *Handle) File() *os.File {
	return h.file
}

// Conn returns a [net.Conn] for the descriptor.
//
// For file backed handles the connection uses its own duplicate of the
// descriptor and must be closed independently. For connection backed handles
// the connection itself is returned and closing it closes the Handle's
// socket as well.
func (h *Handle) Conn() (net.Conn, error) {
	if h.closed.Load() {
		return nil, os.ErrClosed
	}

	if h.conn != nil {
		return h.conn, nil
	}

	conn, err := net.FileConn(h.file)
	if err != nil {
		return nil, &Error{Op: "conn", Err: err}
	}

	return conn, nil
}

// Close closes the descriptor.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)

		if h.conn == nil {
			h.closeErr = h.file.Close()
			return
		}

		err := h.conn.Close()
		if !errors.Is(err, net.ErrClosed) {
			h.closeErr = err
		}
	})

	return h.closeErr
}
