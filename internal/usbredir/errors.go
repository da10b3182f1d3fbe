// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package usbredir

import "errors"

var (
	// ErrNoFreeChannel is returned if all redirection chardevs are in use.
	ErrNoFreeChannel = errors.New("no free USB redirection channel")

	// ErrAccessDenied is returned by [Device.Open] if the device can not be
	// opened by the current user. The [Manager] asks the system helper for
	// a descriptor in that case.
	ErrAccessDenied = errors.New("access denied")

	// ErrPeerClosed is returned by the bridge loops if the peer closed the
	// stream.
	ErrPeerClosed = errors.New("peer closed")

	// ErrClosed is returned by [Manager.SetDeviceState] after
	// [Manager.Close].
	ErrClosed = errors.New("manager closed")

	errShutdown = errors.New("shutdown")
)
