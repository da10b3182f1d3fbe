// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/godbus/dbus/v5"
)

// methodTables returns the method table for an exported interface. godbus
// needs typed methods, so each exportable interface is listed here.
var methodTables = map[string]func(s *exportServer) map[string]any{
	"org.qemu.Display1.Clipboard": clipboardMethods,
}

func clipboardMethods(s *exportServer) map[string]any {
	return map[string]any{
		"Register": func() *dbus.Error {
			_, err := s.dispatch("Register")
			return err
		},
		"Unregister": func() *dbus.Error {
			_, err := s.dispatch("Unregister")
			return err
		},
		"Grab": func(selection, serial uint32, mimes []string) *dbus.Error {
			_, err := s.dispatch("Grab", selection, serial, mimes)
			return err
		},
		"Release": func(selection uint32) *dbus.Error {
			_, err := s.dispatch("Release", selection)
			return err
		},
		"Request": func(selection uint32, mimes []string) (string, []byte, *dbus.Error) {
			values, err := s.dispatch("Request", selection, mimes)
			if err != nil {
				return "", nil, err
			}

			var (
				mime string
				data []byte
			)

			storeErr := dbus.Store(values, &mime, &data)
			if storeErr != nil {
				return "", nil, dbus.MakeFailedError(storeErr)
			}

			return mime, data, nil
		},
	}
}

var errListenerGone = errors.New("listener gone")

type result struct {
	values []any
	err    error
}

// exportServer serves an object exported on the shared bus.
type exportServer struct {
	conn *dbus.Conn
	obj  rpc.Object

	calls     chan *rpc.Call
	done      chan struct{}
	closeOnce sync.Once
}

var _ rpc.Server = (*exportServer)(nil)

func export(conn *dbus.Conn, obj rpc.Object) (*exportServer, error) {
	table, exists := methodTables[obj.Interface]
	if !exists {
		return nil, fmt.Errorf("export %s: %w", obj.Interface, rpc.ErrNotSupported)
	}

	s := &exportServer{
		conn:  conn,
		obj:   obj,
		calls: make(chan *rpc.Call),
		done:  make(chan struct{}),
	}

	err := conn.ExportMethodTable(table(s), dbus.ObjectPath(obj.Path), obj.Interface)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", obj, err)
	}

	return s, nil
}

// dispatch hands a call to the serving loop and waits for its answer.
func (s *exportServer) dispatch(member string, args ...any) ([]any, *dbus.Error) {
	results := make(chan result, 1)

	call := rpc.NewCall(member, args, func(values []any, err error) {
		results <- result{values: values, err: err}
	})

	select {
	case s.calls <- call:
	case <-s.done:
		return nil, dbus.MakeFailedError(errListenerGone)
	}

	select {
	case res := <-results:
		if res.err != nil {
			return nil, dbus.MakeFailedError(res.err)
		}

		return res.values, nil
	case <-s.done:
		return nil, dbus.MakeFailedError(errListenerGone)
	}
}

// Next implements [rpc.Server].
func (s *exportServer) Next(ctx context.Context) (*rpc.Call, error) {
	select {
	case call := <-s.calls:
		return call, nil
	case <-s.done:
		return nil, rpc.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close implements [rpc.Server]. It removes the exported object.
func (s *exportServer) Close() error {
	var err error

	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Export(nil, dbus.ObjectPath(s.obj.Path), s.obj.Interface)
	})

	return err
}
