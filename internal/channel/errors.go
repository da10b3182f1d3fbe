// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package channel

import "errors"

// ErrPeerPIDMissing is returned by [SocketPasser] if no peer process ID is
// known. Sockets can only be duplicated into a specific process.
var ErrPeerPIDMissing = errors.New("peer process id missing")
