// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpctest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Timeout is the time test helpers wait for asynchronous results.
const Timeout = 2 * time.Second

// RequireNextPeer returns the next [Peer] or fails the test if none shows up
// within [Timeout].
func RequireNextPeer(tb testing.TB, bus *Bus) *Peer {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	peer, err := bus.NextPeer(ctx)
	require.NoError(tb, err, "next peer")

	return peer
}

// RequireCall sends a call and requires it to be answered without error.
func RequireCall(tb testing.TB, peer *Peer, member string, args ...any) []any {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	values, err := peer.Call(ctx, member, args...)
	require.NoError(tb, err, "call %s", member)

	return values
}
