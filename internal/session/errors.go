// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import "errors"

var (
	// ErrAlreadyAttached is returned by [Session.Attach] if the session is
	// not detached.
	ErrAlreadyAttached = errors.New("already attached")

	// ErrAttachCanceled is returned by [Session.Attach] if
	// [Session.Detach] was called while attaching.
	ErrAttachCanceled = errors.New("attach canceled")
)
