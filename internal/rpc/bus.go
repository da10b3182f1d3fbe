// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"context"

	"github.com/aibor/qemu-display/internal/channel"
)

// Bus is a connection to the inter-process bus.
type Bus interface {
	// Call calls the method on the object and stores the reply values into
	// the given pointers. Arguments may contain [*channel.Handle] values
	// which are passed to the peer out of band.
	Call(ctx context.Context, obj Object, method string, args []any, reply ...any) error

	// Property reads the property of the object into value, which must be a
	// pointer.
	Property(ctx context.Context, obj Object, name string, value any) error

	// Serve hosts the given object on a private peer-to-peer channel on the
	// given handle. The handle stays owned by the caller.
	Serve(ctx context.Context, handle *channel.Handle, obj Object) (Server, error)

	// Export hosts the given object on the shared bus.
	Export(ctx context.Context, obj Object) (Server, error)

	// Objects returns all objects managed below the given object path with
	// their interfaces.
	Objects(ctx context.Context, root Object) (map[string][]string, error)

	// Watch subscribes to signals with the given member emitted by the object.
	// The channel is closed once ctx is done or the bus is gone.
	Watch(ctx context.Context, obj Object, member string) (<-chan Signal, error)
}

// Server hands out incoming calls for a hosted object.
type Server interface {
	// Next blocks until the next call arrives. It returns [ErrClosed] once
	// the channel is gone and ctx.Err() if the context is done.
	Next(ctx context.Context) (*Call, error)

	// Close stops serving. A blocked Next returns [ErrClosed].
	Close() error
}

// Signal is a signal received from an object.
type Signal struct {
	Path   string
	Member string
	Body   []any
}
