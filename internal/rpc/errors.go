// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import "errors"

var (
	// ErrClosed is returned by [Server.Next] once the underlying channel is
	// gone, either closed by the peer or by [Server.Close].
	ErrClosed = errors.New("channel closed")

	// ErrUnknownMethod is returned in replies to calls of methods the hosted
	// object does not implement.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrNotSupported is returned by bus implementations for primitives they
	// can not provide.
	ErrNotSupported = errors.New("not supported")
)
