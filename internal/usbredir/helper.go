// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package usbredir

import (
	"context"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
)

// SystemHelperObject is the object of the system helper on the system bus.
var SystemHelperObject = rpc.Object{
	Destination: "org.freedesktop.usbredir1",
	Path:        "/org/freedesktop/usbredir1",
	Interface:   "org.freedesktop.usbredir1",
}

// SystemHelper is the [Helper] provided by the usbredir system service.
type SystemHelper struct {
	Bus rpc.Bus
}

var _ Helper = SystemHelper{}

// OpenBusDev implements [Helper].
func (h SystemHelper) OpenBusDev(ctx context.Context, key Key) (*channel.Handle, error) {
	var handle *channel.Handle

	err := h.Bus.Call(ctx, SystemHelperObject, "OpenBusDev",
		[]any{key.Bus, key.Address}, &handle)
	if err != nil {
		return nil, err
	}

	return handle, nil
}
