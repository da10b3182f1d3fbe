// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener_test

import (
	"context"
	"testing"
	"time"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/aibor/qemu-display/internal/rpc/rpctest"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type served struct {
	peer   *rpctest.Peer
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// wait returns the result of Serve.
func (s *served) wait(t *testing.T) error {
	t.Helper()

	select {
	case <-s.done:
		return s.err
	case <-time.After(rpctest.Timeout):
		require.FailNow(t, "serve did not return")
		return nil
	}
}

func serve(t *testing.T, dispatcher listener.Dispatcher) *served {
	t.Helper()

	bus := rpctest.New(t)
	ctx, cancel := context.WithCancel(context.Background())

	srv, err := bus.Serve(ctx, nil, rpc.Object{Path: "/org/qemu/Display1/Listener"})
	require.NoError(t, err)

	s := &served{
		peer:   rpctest.RequireNextPeer(t, bus),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		s.err = listener.Serve(ctx, srv, dispatcher)
	}()

	t.Cleanup(func() {
		cancel()
		s.peer.Close()
		<-s.done
	})

	return s
}

func receive[E any](t *testing.T, queue *bridge.Queue[E]) E {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), rpctest.Timeout)
	defer cancel()

	event, err := queue.Receive(ctx)
	require.NoError(t, err)

	return event
}
