// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package dbusrpc

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/aibor/qemu-display/internal/channel"
	"golang.org/x/sys/unix"
)

// Maximum number of descriptors received with a single read.
const maxFDs = 16

// fdReader reads from a connection and collects descriptors sent along with
// the data. Descriptors are queued in arrival order.
type fdReader struct {
	conn *net.UnixConn
	raw  io.Reader

	mu  sync.Mutex
	fds []int
}

func newFDReader(conn net.Conn) *fdReader {
	unixConn, _ := conn.(*net.UnixConn)

	return &fdReader{conn: unixConn, raw: conn}
}

func (r *fdReader) supported() bool {
	return r.conn != nil
}

func (r *fdReader) Read(p []byte) (int, error) {
	if r.conn == nil {
		return readResult(r.raw.Read(p))
	}

	oob := make([]byte, unix.CmsgSpace(maxFDs*4))

	n, oobn, _, _, err := r.conn.ReadMsgUnix(p, oob)
	if oobn > 0 {
		r.collect(oob[:oobn])
	}

	return readResult(n, err)
}

func (r *fdReader) collect(oob []byte) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		slog.Warn("Parse control message", slog.Any("error", err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range msgs {
		fds, err := unix.ParseUnixRights(&msg)
		if err != nil {
			continue
		}

		for _, fd := range fds {
			unix.CloseOnExec(fd)
		}

		r.fds = append(r.fds, fds...)
	}
}

// take returns the next n received descriptors.
func (r *fdReader) take(n int) ([]*channel.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n > len(r.fds) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrMissingFD, n, len(r.fds))
	}

	handles := make([]*channel.Handle, n)
	for idx, fd := range r.fds[:n] {
		handles[idx] = channel.NewHandle(os.NewFile(uintptr(fd), "dbus-fd"))
	}

	r.fds = r.fds[n:]

	return handles, nil
}

// release closes all descriptors not taken.
func (r *fdReader) release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, fd := range r.fds {
		_ = unix.Close(fd)
	}

	r.fds = nil
}
