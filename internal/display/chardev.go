// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"fmt"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/usbredir"
)

// Chardev is a character device of the VM that can be connected to a stream.
type Chardev struct {
	proxy

	ID string

	passer channel.Passer
}

var _ usbredir.Chardev = (*Chardev)(nil)

// Register connects the chardev to the given stream end. The handle stays
// owned by the caller.
func (c *Chardev) Register(ctx context.Context, remote *channel.Handle) error {
	transfer, err := c.passer.Prepare(remote)
	if err != nil {
		return fmt.Errorf("register chardev %s: %w", c.ID, err)
	}

	defer transfer.Close()

	return c.call(ctx, "Register", transfer.Value)
}

// SendBreak sends a break to the chardev's front-end.
func (c *Chardev) SendBreak(ctx context.Context) error {
	return c.call(ctx, "SendBreak")
}

// Name returns the name of the chardev. USB redirection chardevs are named
// "org.qemu.usbredir".
func (c *Chardev) Name(ctx context.Context) (string, error) {
	return property[string](ctx, c.proxy, "Name")
}

// Owner implements [usbredir.Chardev].
func (c *Chardev) Owner(ctx context.Context) (string, error) {
	return property[string](ctx, c.proxy, "Owner")
}

// Echo returns true if the front-end echoes input.
func (c *Chardev) Echo(ctx context.Context) (bool, error) {
	return property[bool](ctx, c.proxy, "Echo")
}

// FEOpened returns true if the front-end has opened the chardev.
func (c *Chardev) FEOpened(ctx context.Context) (bool, error) {
	return property[bool](ctx, c.proxy, "FEOpened")
}
