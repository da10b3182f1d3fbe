// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpctest

import (
	"context"
	"sync"

	"github.com/aibor/qemu-display/internal/rpc"
)

type reply struct {
	values []any
	err    error
}

type server struct {
	calls     chan *rpc.Call
	done      chan struct{}
	closeOnce sync.Once
}

func newServer() *server {
	return &server{
		calls: make(chan *rpc.Call),
		done:  make(chan struct{}),
	}
}

// Next implements [rpc.Server].
func (s *server) Next(ctx context.Context) (*rpc.Call, error) {
	select {
	case <-s.done:
		return nil, rpc.ErrClosed
	default:
	}

	select {
	case call := <-s.calls:
		return call, nil
	case <-s.done:
		return nil, rpc.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements [rpc.Server].
func (s *server) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// Peer is the remote side of a hosted object.
type Peer struct {
	Object rpc.Object

	server *server
}

// Pending is a sent call that may not have been answered yet.
type Pending struct {
	reply chan reply
	done  chan struct{}
}

// Wait blocks until the call is answered. It returns [ErrNoReply] if the
// channel was closed before.
func (p *Pending) Wait(ctx context.Context) ([]any, error) {
	select {
	case r := <-p.reply:
		return r.values, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
		// A reply may have been sent right before closing.
		select {
		case r := <-p.reply:
			return r.values, r.err
		default:
			return nil, ErrNoReply
		}
	}
}

// Answered reports whether the call has been answered already.
func (p *Pending) Answered() bool {
	select {
	case r := <-p.reply:
		// Put it back for Wait.
		p.reply <- r
		return true
	default:
		return false
	}
}

// Send delivers a call to the hosted object and returns once the serving
// side picked it up. Calls are delivered in the order they are sent.
func (p *Peer) Send(ctx context.Context, member string, args ...any) (*Pending, error) {
	pending := &Pending{
		reply: make(chan reply, 1),
		done:  p.server.done,
	}

	call := rpc.NewCall(member, args, func(values []any, err error) {
		pending.reply <- reply{values: values, err: err}
	})

	select {
	case p.server.calls <- call:
		return pending, nil
	case <-p.server.done:
		return nil, rpc.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Call sends a call and waits for its answer.
func (p *Peer) Call(ctx context.Context, member string, args ...any) ([]any, error) {
	pending, err := p.Send(ctx, member, args...)
	if err != nil {
		return nil, err
	}

	return pending.Wait(ctx)
}

// Close closes the channel from the peer side.
func (p *Peer) Close() {
	_ = p.server.Close()
}

// Closed returns a channel that is closed once the channel is gone, no matter
// which side closed it.
func (p *Peer) Closed() <-chan struct{} {
	return p.server.done
}
