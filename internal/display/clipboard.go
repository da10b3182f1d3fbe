// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"fmt"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/session"
)

// Clipboard is the clipboard of the VM.
//
// Outgoing calls announce and serve the front-end's clipboard content to the
// guest. The guest's clipboard is observed with the [Clipboard.Listener].
type Clipboard struct {
	proxy

	establisher session.Establisher
}

// Grab announces that the front-end owns the selection with content in the
// given MIME types. Serials must increase with each grab.
func (c *Clipboard) Grab(ctx context.Context, sel listener.Selection, serial uint32, mimes []string) error {
	return c.call(ctx, "Grab", uint32(sel), serial, mimes)
}

// Release gives up the front-end's ownership of the selection.
func (c *Clipboard) Release(ctx context.Context, sel listener.Selection) error {
	return c.call(ctx, "Release", uint32(sel))
}

// Request requests the guest's content of the selection in one of the given
// MIME types.
func (c *Clipboard) Request(
	ctx context.Context,
	sel listener.Selection,
	mimes []string,
) (listener.ClipboardData, error) {
	var data listener.ClipboardData

	err := c.bus.Call(ctx, c.obj, "Request", []any{uint32(sel), mimes}, &data.Mime, &data.Data)
	if err != nil {
		return listener.ClipboardData{}, fmt.Errorf("request %s: %w", sel, err)
	}

	return data, nil
}

// Listener returns a new detached session for the guest's clipboard events.
func (c *Clipboard) Listener() *session.Session[listener.ClipboardEvent] {
	return session.New(session.Config[listener.ClipboardEvent]{
		Establisher: c.establisher,
		Service:     ClipboardService(),
		NewDispatcher: func(queue *bridge.Queue[listener.ClipboardEvent]) listener.Dispatcher {
			return listener.NewClipboard(queue)
		},
	})
}
