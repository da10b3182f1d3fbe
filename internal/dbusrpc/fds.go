// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"errors"
	"io"
	"net"
)

// readResult normalizes the result of a read on the peer connection for
// [bufio.Reader]. Reads interrupted by a local close may report a negative
// count. A closed connection reads as end of stream.
func readResult(n int, err error) (int, error) {
	if n < 0 {
		n = 0
	}

	if errors.Is(err, net.ErrClosed) {
		err = io.EOF
	}

	return n, err
}
