// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"fmt"
	"sync"
)

// ReplyFunc sends the answer of a [Call] back to the caller. Either values or
// err is set.
type ReplyFunc func(values []any, err error)

// Call is an incoming method call on a hosted object.
type Call struct {
	Member string
	Args   []any

	mu      sync.Mutex
	reply   ReplyFunc
	replied bool
}

// NewCall creates a new [Call]. A nil reply function is valid for calls the
// caller does not expect an answer for.
func NewCall(member string, args []any, reply ReplyFunc) *Call {
	return &Call{
		Member: member,
		Args:   args,
		reply:  reply,
	}
}

// Return answers the call with the given values.
func (c *Call) Return(values ...any) {
	c.send(values, nil)
}

// Fail answers the call with an error.
func (c *Call) Fail(err error) {
	c.send(nil, err)
}

// Replied reports whether the call has been answered.
func (c *Call) Replied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.replied
}

func (c *Call) send(values []any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.replied {
		return
	}

	c.replied = true

	if c.reply != nil {
		c.reply(values, err)
	}
}

// Arg returns the call argument at the given index converted to T.
//
// It returns an [*ArgError] if the argument is missing or has a different
// type.
func Arg[T any](call *Call, idx int) (T, error) {
	var zero T

	if idx >= len(call.Args) {
		return zero, &ArgError{
			Member: call.Member,
			Index:  idx,
			Want:   fmt.Sprintf("%T", zero),
		}
	}

	value, ok := call.Args[idx].(T)
	if !ok {
		return zero, &ArgError{
			Member: call.Member,
			Index:  idx,
			Want:   fmt.Sprintf("%T", zero),
			Got:    call.Args[idx],
		}
	}

	return value, nil
}
