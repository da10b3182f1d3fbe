// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"time"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/session"
)

// UIInfo is the geometry of the front-end's console window.
type UIInfo struct {
	WidthMM  uint16
	HeightMM uint16
	XOff     int32
	YOff     int32
	Width    uint32
	Height   uint32
}

// Console is a graphic or text console of the VM.
type Console struct {
	proxy

	Index    uint32
	Keyboard *Keyboard
	Mouse    *Mouse

	establisher session.Establisher
}

func newConsole(d *Display, idx uint32) *Console {
	p := proxy{bus: d.bus, obj: object(ConsolePath(idx), ConsoleInterface)}

	return &Console{
		proxy:       p,
		Index:       idx,
		Keyboard:    &Keyboard{proxy{bus: p.bus, obj: p.obj.WithInterface(KeyboardInterface)}},
		Mouse:       &Mouse{proxy{bus: p.bus, obj: p.obj.WithInterface(MouseInterface)}},
		establisher: d.establisher,
	}
}

// Label returns the human readable name of the console.
func (c *Console) Label(ctx context.Context) (string, error) {
	return property[string](ctx, c.proxy, "Label")
}

// Head returns the head number of the console on its device.
func (c *Console) Head(ctx context.Context) (uint32, error) {
	return property[uint32](ctx, c.proxy, "Head")
}

// Type returns the console type, "Graphic" or "Text".
func (c *Console) Type(ctx context.Context) (string, error) {
	return property[string](ctx, c.proxy, "Type")
}

// Width returns the current width of the console in pixels.
func (c *Console) Width(ctx context.Context) (uint32, error) {
	return property[uint32](ctx, c.proxy, "Width")
}

// Height returns the current height of the console in pixels.
func (c *Console) Height(ctx context.Context) (uint32, error) {
	return property[uint32](ctx, c.proxy, "Height")
}

// SetUIInfo tells the guest about the front-end's window geometry.
func (c *Console) SetUIInfo(ctx context.Context, info UIInfo) error {
	return c.call(ctx, "SetUIInfo",
		info.WidthMM, info.HeightMM,
		info.XOff, info.YOff,
		info.Width, info.Height,
	)
}

// Listener returns a new detached session for the console's listener.
// Update acknowledgements not given within ackTimeout end the attachment.
// Zero waits forever.
func (c *Console) Listener(ackTimeout time.Duration) *session.Session[listener.ConsoleEvent] {
	return session.New(session.Config[listener.ConsoleEvent]{
		Establisher: c.establisher,
		Service:     ConsoleService(c.Index),
		NewDispatcher: func(queue *bridge.Queue[listener.ConsoleEvent]) listener.Dispatcher {
			dispatcher := listener.NewConsole(queue)
			dispatcher.AckTimeout = ackTimeout

			return dispatcher
		},
	})
}
