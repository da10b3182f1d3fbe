// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bridge

import (
	"context"
	"io"
	"sync"
)

// Queue is an unbounded FIFO queue with a single producer side and a single
// consumer.
//
// The producer seals the queue when it is done. The consumer drains the
// remaining events and then receives [io.EOF]. The consumer closes the queue
// if it is not interested anymore. Events pushed after that are rejected with
// [ErrConsumerGone].
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	sealed bool
	closed bool

	ready chan struct{}
	gone  chan struct{}
}

// NewQueue creates a new empty [Queue].
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		ready: make(chan struct{}, 1),
		gone:  make(chan struct{}),
	}
}

// notify must be called with the lock held.
func (q *Queue[T]) notify() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Push appends an event. It never blocks.
func (q *Queue[T]) Push(event T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.closed:
		return ErrConsumerGone
	case q.sealed:
		return ErrSealed
	}

	q.items = append(q.items, event)
	q.notify()

	return nil
}

// TryPop removes and returns the oldest event, if any.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T

	if len(q.items) == 0 {
		return zero, false
	}

	event := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]

	if len(q.items) > 0 {
		q.notify()
	}

	return event, true
}

// Receive blocks until an event is available and returns it. It returns
// [io.EOF] once the queue is sealed and empty and [ErrConsumerGone] if the
// queue is closed.
func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	for {
		q.mu.Lock()
		closed, sealed := q.closed, q.sealed
		q.mu.Unlock()

		if closed {
			return zero, ErrConsumerGone
		}

		event, ok := q.TryPop()
		if ok {
			return event, nil
		}

		if sealed {
			return zero, io.EOF
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Ready returns a channel that receives a value whenever events are
// available or the queue got sealed. It is meant for a single consumer
// selecting on it next to other event sources. Drain the queue with
// [Queue.TryPop] after each wake up.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Gone returns a channel that is closed once the consumer closed the queue.
func (q *Queue[T]) Gone() <-chan struct{} {
	return q.gone
}

// Bind returns a context that is canceled with cause [ErrConsumerGone] once
// the consumer closed the queue. The returned cancel function must be called
// to release resources.
func (q *Queue[T]) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	go func() {
		select {
		case <-q.gone:
			cancel(ErrConsumerGone)
		case <-ctx.Done():
		}
	}()

	return ctx, func() { cancel(context.Canceled) }
}

// Seal marks the producer side as done. Further pushes fail with [ErrSealed].
func (q *Queue[T]) Seal() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sealed {
		return
	}

	q.sealed = true
	q.notify()
}

// Sealed reports whether the producer side is done.
func (q *Queue[T]) Sealed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.sealed
}

// Close marks the consumer as gone and drops all pending events.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	q.items = nil
	close(q.gone)
}

// Len returns the number of pending events.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
