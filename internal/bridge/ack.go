// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bridge

import (
	"context"
	"sync"
)

// Ack is a one-shot acknowledgment from the consumer to the listener.
type Ack struct {
	once sync.Once
	done chan struct{}
}

// NewAck creates a new pending [Ack].
func NewAck() *Ack {
	return &Ack{done: make(chan struct{})}
}

// Done acknowledges. Only the first call has an effect.
func (a *Ack) Done() {
	a.once.Do(func() { close(a.done) })
}

// Acked returns a channel that is closed once [Ack.Done] was called.
func (a *Ack) Acked() <-chan struct{} {
	return a.done
}

// Wait blocks until [Ack.Done] is called or ctx is done. In the latter case
// it returns the cause of the context cancellation.
func (a *Ack) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

type result[T any] struct {
	value T
	err   error
}

// Reply is a one-shot answer from the consumer to the listener carrying either
// a value or an error.
type Reply[T any] struct {
	once   sync.Once
	result chan result[T]
}

// NewReply creates a new pending [Reply].
func NewReply[T any]() *Reply[T] {
	return &Reply[T]{result: make(chan result[T], 1)}
}

// Send answers with a value. Only the first answer has an effect.
func (r *Reply[T]) Send(value T) {
	r.once.Do(func() { r.result <- result[T]{value: value} })
}

// Fail answers with an error. Only the first answer has an effect.
func (r *Reply[T]) Fail(err error) {
	r.once.Do(func() { r.result <- result[T]{err: err} })
}

// Wait blocks until the reply is answered or ctx is done. In the latter case
// it returns the cause of the context cancellation. It must only be called
// once.
func (r *Reply[T]) Wait(ctx context.Context) (T, error) {
	select {
	case res := <-r.result:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}
