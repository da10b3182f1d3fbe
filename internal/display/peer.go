// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"fmt"

	"github.com/aibor/qemu-display/internal/rpc"
)

var busObject = rpc.Object{
	Destination: "org.freedesktop.DBus",
	Path:        "/org/freedesktop/DBus",
	Interface:   "org.freedesktop.DBus",
}

// PeerPID returns the process ID of the display server. It is required to
// pass sockets on platforms without descriptor passing.
func PeerPID(ctx context.Context, bus rpc.Bus) (uint32, error) {
	var pid uint32

	err := bus.Call(ctx, busObject, "GetConnectionUnixProcessID", []any{ServiceName}, &pid)
	if err != nil {
		return 0, fmt.Errorf("get peer pid: %w", err)
	}

	return pid, nil
}
