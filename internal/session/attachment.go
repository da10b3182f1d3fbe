// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
)

// attachment is a single attach of a [Session]. It is torn down exactly once.
type attachment[E any] struct {
	session    *Session[E]
	queue      *bridge.Queue[E]
	channel    *Channel
	dispatcher listener.Dispatcher
	cancel     context.CancelFunc

	served chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (a *attachment[E]) serve(ctx context.Context) {
	err := listener.Serve(ctx, a.channel.Server, a.dispatcher)

	close(a.served)

	if err != nil {
		slog.Debug("Listener ended",
			slog.String("service", a.session.cfg.Service.Name),
			slog.Any("error", err),
		)
	}

	// Peer initiated teardown. No-op if detach is running already.
	a.teardown(err)
}

// teardown stops serving and waits until the attachment is torn down.
//
// The order matters: canceling releases a pending rendezvous, closing the
// channel makes the listener stop reading, the disconnect event is the last
// event before the queue is sealed.
func (a *attachment[E]) teardown(reason error) {
	a.once.Do(func() {
		svc := a.session.cfg.Service

		a.session.detaching(a)
		a.cancel()

		if err := a.channel.Close(); err != nil {
			slog.Debug("Close channel", slog.String("service", svc.Name), slog.Any("error", err))
		}

		<-a.served

		a.dispatcher.Disconnected(reason)

		if svc.Unregister != "" {
			a.unregister(svc)
		}

		a.queue.Seal()
		a.session.finish(a)
		close(a.done)

		slog.Debug("Session detached", slog.String("service", svc.Name))
	})

	<-a.done
}

func (a *attachment[E]) unregister(svc Service) {
	ctx, cancel := context.WithTimeout(context.Background(), UnregisterTimeout)
	defer cancel()

	err := a.session.cfg.Establisher.Bus.Call(ctx, svc.Object, svc.Unregister, nil)
	if err != nil {
		slog.Warn("Unregister failed",
			slog.String("service", svc.Name),
			slog.Any("error", err),
		)
	}
}
