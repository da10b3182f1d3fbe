// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package usbredir

import (
	"context"
	"fmt"

	"github.com/aibor/qemu-display/internal/channel"
)

// Key identifies a local USB device.
type Key struct {
	Bus     uint8
	Address uint8
}

func (k Key) String() string {
	return fmt.Sprintf("%03d:%03d", k.Bus, k.Address)
}

// Processor is the redirection protocol engine of an opened device.
type Processor interface {
	// Feed hands data received from the peer to the engine.
	Feed(data []byte) error
	// Drain blocks until the engine has data for the peer and returns it.
	Drain(ctx context.Context) ([]byte, error)
	// Close closes the device.
	Close() error
}

// Device is a local USB device.
type Device interface {
	Key() Key
	// Open opens the device. It returns [ErrAccessDenied] if the current user
	// may not open the device.
	Open(ctx context.Context) (Processor, error)
	// OpenFD opens the device with an already opened descriptor. The
	// processor takes ownership of the handle.
	OpenFD(ctx context.Context, fd *channel.Handle) (Processor, error)
}

// Chardev is a USB redirection chardev of the display server.
type Chardev interface {
	// Owner returns the bus name of the chardev's current user. It is empty
	// if the chardev is free.
	Owner(ctx context.Context) (string, error)
	// Register connects the chardev to the given stream end.
	Register(ctx context.Context, remote *channel.Handle) error
}

// Helper opens devices on behalf of unprivileged users.
type Helper interface {
	OpenBusDev(ctx context.Context, key Key) (*channel.Handle, error)
}
