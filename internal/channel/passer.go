// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package channel

import "io"

// Passer encodes the remote end of a stream pair into a value that can be
// transferred to the peer as RPC argument.
type Passer interface {
	Prepare(remote *Handle) (*Transfer, error)
}

// Transfer is a prepared remote end.
//
// It must be closed after the RPC call it was used in returned, regardless of
// the outcome.
type Transfer struct {
	// Value is passed as is to the RPC layer. It is a [*Handle] for
	// descriptor passing transports and a byte slice for socket info
	// transports.
	Value any

	closer io.Closer
}

// Close releases resources held for the transfer.
func (t *Transfer) Close() error {
	if t.closer == nil {
		return nil
	}

	return t.closer.Close()
}

// FDPasser passes the remote end as duplicated descriptor. The RPC layer is
// responsible for transferring it out of band, like with SCM_RIGHTS.
type FDPasser struct{}

// Prepare implements [Passer].
func (FDPasser) Prepare(remote *Handle) (*Transfer, error) {
	dup, err := remote.Dup()
	if err != nil {
		return nil, err
	}

	return &Transfer{Value: dup, closer: dup}, nil
}
