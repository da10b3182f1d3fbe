// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
)

// UnregisterTimeout limits the best effort unregister call on detach.
const UnregisterTimeout = time.Second

// DispatcherFunc creates the dispatcher of an attachment pushing into the
// given queue.
type DispatcherFunc[E any] func(queue *bridge.Queue[E]) listener.Dispatcher

// Config is the configuration of a [Session].
type Config[E any] struct {
	Establisher   Establisher
	Service       Service
	NewDispatcher DispatcherFunc[E]
}

// Session is the lifecycle of a listener attached to a service.
//
// It is safe for concurrent use.
type Session[E any] struct {
	cfg Config[E]

	mu        sync.Mutex
	state     State
	current   *attachment[E]
	attaching chan struct{}
	cancel    context.CancelFunc
}

// New creates a new detached [Session].
func New[E any](cfg Config[E]) *Session[E] {
	return &Session[E]{cfg: cfg}
}

// Service returns the service the session attaches to.
func (s *Session[E]) Service() Service {
	return s.cfg.Service
}

// State returns the current state.
func (s *Session[E]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Done returns a channel that is closed once the current attachment is torn
// down. If the session is not attached, the returned channel is closed.
func (s *Session[E]) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		done := make(chan struct{})
		close(done)

		return done
	}

	return s.current.done
}

// Attach establishes a fresh channel to the service and starts serving the
// listener on it. It returns the queue the events of this attachment are
// pushed into. The last event is always a [listener.Disconnected]. After
// that, the queue is sealed.
//
// It fails with [ErrAlreadyAttached] if the session is not detached.
func (s *Session[E]) Attach(ctx context.Context) (*bridge.Queue[E], error) {
	s.mu.Lock()

	if s.state != Detached {
		state := s.state
		s.mu.Unlock()

		return nil, fmt.Errorf("%s: %w (%s)", s.cfg.Service.Name, ErrAlreadyAttached, state)
	}

	attachCtx, cancel := context.WithCancel(ctx)
	attaching := make(chan struct{})

	s.state = Attaching
	s.attaching = attaching
	s.cancel = cancel
	s.mu.Unlock()

	defer close(attaching)
	defer cancel()

	ch, err := s.cfg.Establisher.Establish(attachCtx, s.cfg.Service)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.attaching = nil
	s.cancel = nil

	if err != nil {
		s.state = Detached
		return nil, fmt.Errorf("attach %s: %w", s.cfg.Service.Name, err)
	}

	if attachCtx.Err() != nil {
		_ = ch.Close()
		s.state = Detached

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("attach %s: %w", s.cfg.Service.Name, err)
		}

		return nil, fmt.Errorf("attach %s: %w", s.cfg.Service.Name, ErrAttachCanceled)
	}

	queue := bridge.NewQueue[E]()

	// Serving outlives the attach context. It ends on teardown only.
	serveCtx, serveCancel := context.WithCancel(context.WithoutCancel(ctx))

	att := &attachment[E]{
		session:    s,
		queue:      queue,
		channel:    ch,
		dispatcher: s.cfg.NewDispatcher(queue),
		cancel:     serveCancel,
		served:     make(chan struct{}),
		done:       make(chan struct{}),
	}

	s.state = Attached
	s.current = att

	go att.serve(serveCtx)

	slog.Debug("Session attached", slog.String("service", s.cfg.Service.Name))

	return queue, nil
}

// Detach tears down the current attachment and waits until it is complete.
// Detaching a detached session is a no-op. Detaching while attaching cancels
// the attach.
func (s *Session[E]) Detach() {
	s.mu.Lock()

	switch s.state {
	case Detached:
		s.mu.Unlock()
	case Attaching:
		attaching := s.attaching
		s.cancel()
		s.mu.Unlock()

		<-attaching
	case Attached, Detaching:
		att := s.current
		s.mu.Unlock()

		att.teardown(nil)
	}
}

// finish is called by the attachment once its teardown is complete.
func (s *Session[E]) finish(att *attachment[E]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == att {
		s.current = nil
		s.state = Detached
	}
}

// detaching is called by the attachment when its teardown starts.
func (s *Session[E]) detaching(att *attachment[E]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == att {
		s.state = Detaching
	}
}
