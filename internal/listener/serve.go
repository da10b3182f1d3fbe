// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

import (
	"context"
	"log/slog"

	"github.com/aibor/qemu-display/internal/rpc"
)

// Dispatcher handles the calls of a hosted listener object.
type Dispatcher interface {
	// Dispatch handles a single call. It may answer the call. Unanswered
	// calls are answered after Dispatch returned. A non-nil error ends
	// serving.
	Dispatch(ctx context.Context, call *rpc.Call) error

	// Disconnected is called when serving ended. err is nil if serving was
	// stopped by canceling its context. Only the first call has an effect.
	Disconnected(err error)
}

// Serve dispatches calls from server in arrival order until the server is
// closed, the dispatcher fails or ctx is canceled.
//
// It calls [Dispatcher.Disconnected] before it returns. The returned error is
// nil if ctx was canceled, whatever made the loop end.
func Serve(ctx context.Context, server rpc.Server, dispatcher Dispatcher) error {
	err := serve(ctx, server, dispatcher)
	if ctx.Err() != nil {
		// Stopped on purpose. Closing the server after canceling ctx
		// must not be reported as failure.
		err = nil
	}

	dispatcher.Disconnected(err)

	return err
}

func serve(ctx context.Context, server rpc.Server, dispatcher Dispatcher) error {
	for {
		call, err := server.Next(ctx)
		if err != nil {
			return err
		}

		err = dispatcher.Dispatch(ctx, call)
		if !call.Replied() {
			if err != nil {
				call.Fail(err)
			} else {
				call.Return()
			}
		}

		if err != nil {
			slog.Debug("Listener stopped by dispatch error",
				slog.String("member", call.Member),
				slog.Any("error", err),
			)

			return err
		}
	}
}
