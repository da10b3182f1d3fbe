// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/godbus/dbus/v5"
)

// Bus is an [rpc.Bus] on a D-Bus connection.
type Bus struct {
	conn *dbus.Conn
}

var _ rpc.Bus = (*Bus)(nil)

// Dial connects to the bus at the given address. If the address is empty,
// the session bus is used.
func Dial(address string) (*Bus, error) {
	if address == "" {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, fmt.Errorf("connect session bus: %w", err)
		}

		return &Bus{conn: conn}, nil
	}

	conn, err := dbus.Dial(address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}

	err = conn.Auth(nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	err = conn.Hello()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("hello: %w", err)
	}

	return &Bus{conn: conn}, nil
}

// System connects to the system bus.
func System() (*Bus, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}

	return &Bus{conn: conn}, nil
}

// Close closes the connection.
func (b *Bus) Close() error {
	return b.conn.Close()
}

func (b *Bus) object(obj rpc.Object) dbus.BusObject {
	return b.conn.Object(obj.Destination, dbus.ObjectPath(obj.Path))
}

// Call implements [rpc.Bus].
func (b *Bus) Call(ctx context.Context, obj rpc.Object, method string, args []any, reply ...any) error {
	wire, err := toWire(args)
	if err != nil {
		return &rpc.CallError{Object: obj, Method: method, Err: err}
	}

	targets, convert := replyTargets(reply)

	err = b.object(obj).CallWithContext(ctx, obj.Method(method), 0, wire...).Store(targets...)
	if err != nil {
		return &rpc.CallError{Object: obj, Method: method, Err: err}
	}

	convert()

	return nil
}

// Property implements [rpc.Bus].
func (b *Bus) Property(ctx context.Context, obj rpc.Object, name string, value any) error {
	var variant dbus.Variant

	err := b.object(obj).
		CallWithContext(ctx, propertiesInterface+".Get", 0, obj.Interface, name).
		Store(&variant)
	if err != nil {
		return &rpc.CallError{Object: obj, Method: name, Err: err}
	}

	err = dbus.Store([]any{variant.Value()}, value)
	if err != nil {
		return &rpc.CallError{Object: obj, Method: name, Err: err}
	}

	return nil
}

// Objects implements [rpc.Bus].
func (b *Bus) Objects(ctx context.Context, root rpc.Object) (map[string][]string, error) {
	var managed map[dbus.ObjectPath]map[string]map[string]dbus.Variant

	err := b.object(root).
		CallWithContext(ctx, "org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).
		Store(&managed)
	if err != nil {
		return nil, &rpc.CallError{Object: root, Method: "GetManagedObjects", Err: err}
	}

	objects := make(map[string][]string, len(managed))

	for path, ifaces := range managed {
		names := make([]string, 0, len(ifaces))
		for name := range ifaces {
			names = append(names, name)
		}

		slices.Sort(names)
		objects[string(path)] = names
	}

	return objects, nil
}

// Watch implements [rpc.Bus].
func (b *Bus) Watch(ctx context.Context, obj rpc.Object, member string) (<-chan rpc.Signal, error) {
	options := []dbus.MatchOption{
		dbus.WithMatchObjectPath(dbus.ObjectPath(obj.Path)),
		dbus.WithMatchInterface(obj.Interface),
		dbus.WithMatchMember(member),
	}
	if obj.Destination != "" {
		options = append(options, dbus.WithMatchSender(obj.Destination))
	}

	err := b.conn.AddMatchSignal(options...)
	if err != nil {
		return nil, fmt.Errorf("add match: %w", err)
	}

	in := make(chan *dbus.Signal, 16)
	out := make(chan rpc.Signal)
	name := obj.Method(member)

	b.conn.Signal(in)

	go func() {
		defer close(out)

		defer func() {
			b.conn.RemoveSignal(in)

			err := b.conn.RemoveMatchSignal(options...)
			if err != nil {
				slog.Debug("Remove signal match", slog.Any("error", err))
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-in:
				if !ok {
					return
				}

				if string(sig.Path) != obj.Path || sig.Name != name {
					continue
				}

				select {
				case out <- rpc.Signal{Path: obj.Path, Member: member, Body: fromWireAll(sig.Body)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Serve implements [rpc.Bus].
func (b *Bus) Serve(_ context.Context, handle *channel.Handle, obj rpc.Object) (rpc.Server, error) {
	return newPeerServer(handle, obj)
}

// Export implements [rpc.Bus]. Only interfaces with a known method table can
// be exported.
func (b *Bus) Export(_ context.Context, obj rpc.Object) (rpc.Server, error) {
	return export(b.conn, obj)
}
