// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
)

// Channel is an established listener channel.
type Channel struct {
	Server rpc.Server
	// Handle is the retained channel end. It is nil for [Shared] services.
	Handle *channel.Handle
}

// Close stops serving and closes the retained channel end.
func (c *Channel) Close() error {
	var errs []error

	if err := c.Server.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close server: %w", err))
	}

	if c.Handle != nil {
		if err := c.Handle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close handle: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Establisher establishes listener channels.
type Establisher struct {
	Bus    rpc.Bus
	Passer channel.Passer
}

// Establish connects a listener to the given service.
//
// Failures creating the local channel are returned as [*channel.Error].
// Failures of the registration call are returned as [*rpc.CallError]. No
// resources are left open on failure.
func (e Establisher) Establish(ctx context.Context, svc Service) (*Channel, error) {
	if svc.Transport == Shared {
		return e.establishShared(ctx, svc)
	}

	return e.establishPrivate(ctx, svc)
}

func (e Establisher) establishPrivate(ctx context.Context, svc Service) (*Channel, error) {
	local, remote, err := channel.Pair()
	if err != nil {
		return nil, err
	}

	// The peer has its own copy once the call returned.
	defer remote.Close()

	err = e.register(ctx, svc, remote)
	if err != nil {
		_ = local.Close()
		return nil, err
	}

	server, err := e.Bus.Serve(ctx, local, svc.Listener)
	if err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("serve %s: %w", svc.Listener.Path, err)
	}

	slog.Debug("Private channel established",
		slog.String("service", svc.Name),
		slog.String("object", svc.Object.Path),
	)

	return &Channel{Server: server, Handle: local}, nil
}

func (e Establisher) register(ctx context.Context, svc Service, remote *channel.Handle) error {
	transfer, err := e.Passer.Prepare(remote)
	if err != nil {
		return err
	}

	defer transfer.Close()

	return e.Bus.Call(ctx, svc.Object, svc.Register, []any{transfer.Value})
}

func (e Establisher) establishShared(ctx context.Context, svc Service) (*Channel, error) {
	server, err := e.Bus.Export(ctx, svc.Listener)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", svc.Listener.Path, err)
	}

	err = e.Bus.Call(ctx, svc.Object, svc.Register, nil)
	if err != nil {
		_ = server.Close()
		return nil, err
	}

	slog.Debug("Shared listener registered",
		slog.String("service", svc.Name),
		slog.String("object", svc.Object.Path),
	)

	return &Channel{Server: server}, nil
}
