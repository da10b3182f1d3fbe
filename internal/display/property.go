// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"fmt"

	"github.com/aibor/qemu-display/internal/rpc"
)

// proxy is the common part of all object proxies.
type proxy struct {
	bus rpc.Bus
	obj rpc.Object
}

func (p proxy) call(ctx context.Context, method string, args ...any) error {
	return p.bus.Call(ctx, p.obj, method, args)
}

func property[T any](ctx context.Context, p proxy, name string) (T, error) {
	var value T

	err := p.bus.Property(ctx, p.obj, name, &value)
	if err != nil {
		return value, fmt.Errorf("get %s of %s: %w", name, p.obj.Path, err)
	}

	return value, nil
}
