// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/rpc"
)

// Disconnected is the last event of every listener session.
type Disconnected struct {
	// Err is the reason for the disconnect. It is nil if the session was
	// detached by the consumer.
	Err error
}

func (Disconnected) consoleEvent()   {}
func (Disconnected) audioEvent()     {}
func (Disconnected) clipboardEvent() {}

// base holds the queue handling shared by all dispatchers.
type base[E any] struct {
	queue *bridge.Queue[E]
	once  sync.Once
}

func (b *base[E]) push(event E) error {
	return b.queue.Push(event)
}

// Disconnected implements [Dispatcher].
func (b *base[E]) Disconnected(err error) {
	b.once.Do(func() {
		event, _ := any(Disconnected{Err: err}).(E)

		pushErr := b.queue.Push(event)
		if pushErr != nil {
			slog.Debug("Disconnect event dropped", slog.Any("error", pushErr))
		}
	})
}

// violation logs and answers a call that does not match the protocol.
func violation(call *rpc.Call, err error) {
	verr := &ViolationError{Member: call.Member, Err: err}

	slog.Warn("Protocol violation",
		slog.String("member", call.Member),
		slog.Any("error", err),
	)

	call.Fail(verr)
}

// await runs wait with a context that is also canceled once the consumer is
// gone.
func await[E any](
	ctx context.Context,
	queue *bridge.Queue[E],
	wait func(context.Context) error,
) error {
	ctx, cancel := queue.Bind(ctx)
	defer cancel()

	return wait(ctx)
}
