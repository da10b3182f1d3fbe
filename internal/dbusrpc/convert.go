// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"fmt"
	"os"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/godbus/dbus/v5"
)

// toWire converts call arguments into values godbus can encode. Handles are
// sent as descriptors. The handles must stay open until the call returned.
func toWire(args []any) ([]any, error) {
	wire := make([]any, len(args))

	for idx, arg := range args {
		handle, ok := arg.(*channel.Handle)
		if !ok {
			wire[idx] = arg
			continue
		}

		var fd uintptr

		err := handle.Control(func(raw uintptr) { fd = raw })
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", idx, err)
		}

		wire[idx] = dbus.UnixFD(int32(fd)) //nolint:gosec
	}

	return wire, nil
}

// replyTargets returns store targets for the given reply pointers. Handle
// pointers are replaced by descriptor targets that are converted by the
// returned function once stored.
func replyTargets(reply []any) ([]any, func()) {
	targets := make([]any, len(reply))

	var conversions []func()

	for idx, ptr := range reply {
		handle, ok := ptr.(**channel.Handle)
		if !ok {
			targets[idx] = ptr
			continue
		}

		fd := new(dbus.UnixFD)
		targets[idx] = fd

		conversions = append(conversions, func() {
			*handle = channel.NewHandle(os.NewFile(uintptr(*fd), "dbus-fd"))
		})
	}

	return targets, func() {
		for _, convert := range conversions {
			convert()
		}
	}
}

// fromWire converts decoded values into the plain Go types used by the rpc
// layer.
func fromWire(value any) any {
	switch v := value.(type) {
	case dbus.ObjectPath:
		return string(v)
	case []dbus.ObjectPath:
		paths := make([]string, len(v))
		for idx, path := range v {
			paths[idx] = string(path)
		}

		return paths
	case dbus.Variant:
		return fromWire(v.Value())
	case map[string]dbus.Variant:
		return fromVariants(v)
	case map[string]map[string]dbus.Variant:
		ifaces := make(map[string]map[string]any, len(v))
		for name, props := range v {
			ifaces[name] = fromVariants(props)
		}

		return ifaces
	default:
		return value
	}
}

func fromVariants(variants map[string]dbus.Variant) map[string]any {
	values := make(map[string]any, len(variants))
	for name, variant := range variants {
		values[name] = fromWire(variant)
	}

	return values
}

func fromWireAll(values []any) []any {
	converted := make([]any, len(values))
	for idx, value := range values {
		converted[idx] = fromWire(value)
	}

	return converted
}
