// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/display"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/rpc/rpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func consoleListener(t *testing.T) (*display.Console, *rpctest.Bus) {
	t.Helper()

	bus := rpctest.New(t)
	bus.SetObjects(map[string][]string{
		display.ConsolePath(0): {display.ConsoleInterface},
	})

	d, err := display.New(context.Background(), bus, channel.FDPasser{})
	require.NoError(t, err)

	console, err := d.Console(0)
	require.NoError(t, err)

	return console, bus
}

func TestConsume(t *testing.T) {
	tests := []struct {
		name        string
		end         func(cancel context.CancelFunc, peer *rpctest.Peer)
		expectedErr error
	}{
		{
			name: "canceled",
			end: func(cancel context.CancelFunc, _ *rpctest.Peer) {
				cancel()
			},
		},
		{
			name: "peer gone",
			end: func(_ context.CancelFunc, peer *rpctest.Peer) {
				peer.Close()
			},
			expectedErr: &DisconnectedError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			console, bus := consoleListener(t)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var events []listener.ConsoleEvent

			done := make(chan error, 1)
			go func() {
				done <- consume(ctx, console.Listener(0), func(event listener.ConsoleEvent) {
					events = append(events, event)
				})
			}()

			peer := rpctest.RequireNextPeer(t, bus)
			rpctest.RequireCall(t, peer, "Disable")

			tt.end(cancel, peer)

			var err error
			select {
			case err = <-done:
			case <-time.After(rpctest.Timeout):
				t.Fatal("consume should return")
			}

			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, []listener.ConsoleEvent{listener.Disable{}}, events)
		})
	}
}

func TestAttach(t *testing.T) {
	bus := rpctest.New(t)
	bus.SetObjects(map[string][]string{
		display.ConsolePath(0): {display.ConsoleInterface},
	})

	d, err := display.New(context.Background(), bus, channel.FDPasser{})
	require.NoError(t, err)

	var output bytes.Buffer

	tests := []struct {
		name        string
		flags       flags
		expectedErr error
	}{
		{
			name:        "missing console",
			flags:       flags{Console: 3},
			expectedErr: display.ErrNotFound,
		},
		{
			name:        "missing audio",
			flags:       flags{NoConsole: true, Audio: true},
			expectedErr: display.ErrNotFound,
		},
		{
			name:        "missing clipboard",
			flags:       flags{NoConsole: true, Clipboard: true},
			expectedErr: display.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var group errgroup.Group

			err := attach(context.Background(), &group, &tt.flags, d,
				eventLogger{log: newEventLogger(&output)})
			require.ErrorIs(t, err, tt.expectedErr)
			require.NoError(t, group.Wait())
		})
	}
}
