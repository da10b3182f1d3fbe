// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener_test

import (
	"context"
	"testing"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/rpc/rpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grab(selection listener.Selection, serial uint32) []any {
	return []any{"Grab", uint32(selection), serial, []string{"text/plain"}}
}

func TestClipboardGrabSerials(t *testing.T) {
	tests := []struct {
		name     string
		calls    [][]any
		expected []uint32
	}{
		{
			name: "increasing",
			calls: [][]any{
				grab(listener.SelectionClipboard, 1),
				grab(listener.SelectionClipboard, 2),
			},
			expected: []uint32{1, 2},
		},
		{
			name: "older dropped",
			calls: [][]any{
				grab(listener.SelectionClipboard, 5),
				grab(listener.SelectionClipboard, 3),
			},
			expected: []uint32{5},
		},
		{
			name: "equal dropped",
			calls: [][]any{
				grab(listener.SelectionClipboard, 5),
				grab(listener.SelectionClipboard, 5),
			},
			expected: []uint32{5},
		},
		{
			name: "per selection",
			calls: [][]any{
				grab(listener.SelectionClipboard, 5),
				grab(listener.SelectionPrimary, 1),
			},
			expected: []uint32{5, 1},
		},
		{
			name: "register resets",
			calls: [][]any{
				grab(listener.SelectionClipboard, 5),
				{"Register"},
				grab(listener.SelectionClipboard, 1),
			},
			expected: []uint32{5, 1},
		},
		{
			name: "unregister resets",
			calls: [][]any{
				grab(listener.SelectionClipboard, 5),
				{"Unregister"},
				grab(listener.SelectionClipboard, 2),
			},
			expected: []uint32{5, 2},
		},
		{
			name: "zero after reset dropped",
			calls: [][]any{
				{"Register"},
				grab(listener.SelectionClipboard, 0),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := bridge.NewQueue[listener.ClipboardEvent]()
			s := serve(t, listener.NewClipboard(queue))

			for _, call := range tt.calls {
				rpctest.RequireCall(t, s.peer, call[0].(string), call[1:]...)
			}

			var serials []uint32

			for {
				event, ok := queue.TryPop()
				if !ok {
					break
				}

				if g, ok := event.(listener.ClipboardGrab); ok {
					serials = append(serials, g.Serial)
				}
			}

			assert.Equal(t, tt.expected, serials)
		})
	}
}

func TestClipboardRequest(t *testing.T) {
	queue := bridge.NewQueue[listener.ClipboardEvent]()
	s := serve(t, listener.NewClipboard(queue))
	ctx := context.Background()

	pending, err := s.peer.Send(ctx, "Request",
		uint32(listener.SelectionPrimary), []string{"text/plain", "text/html"})
	require.NoError(t, err)

	request, ok := receive(t, queue).(listener.ClipboardRequest)
	require.True(t, ok, "must be request event")
	assert.Equal(t, listener.SelectionPrimary, request.Selection)
	assert.Equal(t, []string{"text/plain", "text/html"}, request.Mimes)

	request.Reply.Send(listener.ClipboardData{Mime: "text/plain", Data: []byte("hello")})

	values, err := pending.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{"text/plain", []byte("hello")}, values)

	pending, err = s.peer.Send(ctx, "Request",
		uint32(listener.SelectionClipboard), []string{"image/png"})
	require.NoError(t, err)

	request, ok = receive(t, queue).(listener.ClipboardRequest)
	require.True(t, ok, "must be request event")

	request.Reply.Fail(assert.AnError)

	_, err = pending.Wait(ctx)
	require.ErrorIs(t, err, assert.AnError)
}

func TestClipboardInvalidSelection(t *testing.T) {
	queue := bridge.NewQueue[listener.ClipboardEvent]()
	s := serve(t, listener.NewClipboard(queue))

	_, err := s.peer.Call(context.Background(), "Release", uint32(7))
	require.ErrorIs(t, err, listener.ErrProtocolViolation)
	assert.Equal(t, 0, queue.Len())
}

func TestSelectionString(t *testing.T) {
	assert.Equal(t, "clipboard", listener.SelectionClipboard.String())
	assert.Equal(t, "primary", listener.SelectionPrimary.String())
	assert.Equal(t, "secondary", listener.SelectionSecondary.String())
	assert.Equal(t, "selection(9)", listener.Selection(9).String())
}
