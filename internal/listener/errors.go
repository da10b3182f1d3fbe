// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

import "errors"

var (
	// ErrProtocolViolation is the base of all errors caused by calls that
	// do not match the listener protocol.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrUnknownStream is returned for audio calls referencing a stream that
	// has not been initialized or has been finalized already.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrDuplicateStream is returned for audio init calls for a stream that
	// is already live.
	ErrDuplicateStream = errors.New("duplicate stream")

	// ErrAckTimeout is returned if the consumer did not acknowledge an
	// update in time.
	ErrAckTimeout = errors.New("acknowledgment timeout")
)
