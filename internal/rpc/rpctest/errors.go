// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpctest

import "errors"

var (
	// ErrUnknownProperty is returned for property reads that are not
	// configured with [Bus.SetProperty].
	ErrUnknownProperty = errors.New("unknown property")

	// ErrNoReply is returned by [Pending.Wait] if the server was closed
	// before the call was answered.
	ErrNoReply = errors.New("no reply")
)
