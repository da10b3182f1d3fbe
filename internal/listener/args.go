// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

import (
	"fmt"

	"github.com/aibor/qemu-display/internal/rpc"
)

// args decodes call arguments sequentially. The first error sticks and all
// following reads return zero values.
type args struct {
	call *rpc.Call
	idx  int
	err  error
}

func argsOf(call *rpc.Call) *args {
	return &args{call: call}
}

func arg[T any](a *args) T {
	var zero T

	if a.err != nil {
		return zero
	}

	value, err := rpc.Arg[T](a.call, a.idx)
	a.idx++
	a.err = err

	return value
}

// done returns the first decoding error or an error if there are more
// arguments than decoded.
func (a *args) done() error {
	if a.err != nil {
		return a.err
	}

	if len(a.call.Args) != a.idx {
		return fmt.Errorf("%d arguments, want %d", len(a.call.Args), a.idx)
	}

	return nil
}
