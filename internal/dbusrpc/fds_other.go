// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !unix

package dbusrpc

import (
	"fmt"
	"io"
	"net"

	"github.com/aibor/qemu-display/internal/channel"
)

type fdReader struct {
	raw io.Reader
}

func newFDReader(conn net.Conn) *fdReader {
	return &fdReader{raw: conn}
}

func (r *fdReader) Read(p []byte) (int, error) {
	return readResult(r.raw.Read(p))
}

func (*fdReader) supported() bool {
	return false
}

func (*fdReader) take(n int) ([]*channel.Handle, error) {
	if n > 0 {
		return nil, fmt.Errorf("%w: want %d, have 0", ErrMissingFD, n)
	}

	return nil, nil
}

func (*fdReader) release() {}
