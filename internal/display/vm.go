// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import "context"

// VM is the virtual machine the display server belongs to.
type VM struct {
	proxy
}

// Name returns the name of the VM.
func (v *VM) Name(ctx context.Context) (string, error) {
	return property[string](ctx, v.proxy, "Name")
}

// UUID returns the UUID of the VM in its string form.
func (v *VM) UUID(ctx context.Context) (string, error) {
	return property[string](ctx, v.proxy, "UUID")
}

// ConsoleIDs returns the indexes of all consoles of the VM.
func (v *VM) ConsoleIDs(ctx context.Context) ([]uint32, error) {
	return property[[]uint32](ctx, v.proxy, "ConsoleIDs")
}
