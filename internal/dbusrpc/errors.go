// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import "errors"

var (
	// ErrAuth is returned if the peer of a private channel fails to
	// authenticate.
	ErrAuth = errors.New("authentication failed")

	// ErrMissingFD is returned if a message references more descriptors than
	// were received.
	ErrMissingFD = errors.New("missing descriptor")

	// ErrInvalidMessage is returned for messages that lack required header
	// fields.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrUnknownProperty is returned to peers reading a property the hosted
	// object does not have.
	ErrUnknownProperty = errors.New("unknown property")
)

// Error names used in replies to the peer.
const (
	errorFailed          = "org.freedesktop.DBus.Error.Failed"
	errorUnknownMethod   = "org.freedesktop.DBus.Error.UnknownMethod"
	errorUnknownProperty = "org.freedesktop.DBus.Error.UnknownProperty"
)
