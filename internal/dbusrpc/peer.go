// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/godbus/dbus/v5"
)

// peerServer serves an object on a private peer-to-peer channel. The peer
// connects as client, so the server side of the authentication is done here.
type peerServer struct {
	obj    rpc.Object
	conn   net.Conn
	reader *fdReader

	writeMu sync.Mutex
	serial  atomic.Uint32

	calls     chan *rpc.Call
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ rpc.Server = (*peerServer)(nil)

const propertiesInterface = "org.freedesktop.DBus.Properties"

func newPeerServer(handle *channel.Handle, obj rpc.Object) (*peerServer, error) {
	conn, err := handle.Conn()
	if err != nil {
		return nil, err
	}

	s := &peerServer{
		obj:     obj,
		conn:    conn,
		reader:  newFDReader(conn),
		calls:   make(chan *rpc.Call),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}

	go s.run()

	return s, nil
}

// Next implements [rpc.Server].
func (s *peerServer) Next(ctx context.Context) (*rpc.Call, error) {
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
func (s *peerServer) Close() error {
	var err error

	s.closeOnce.Do(func() {
		close(s.closing)
		err = s.conn.Close()
	})

	<-s.done

	return err
}

func (s *peerServer) isClosing() bool {
	select {
	case <-s.closing:
		return true
	default:
		return false
	}
}

func (s *peerServer) run() {
	defer close(s.done)
	defer s.reader.release()

	r := bufio.NewReader(s.reader)

	unixFD, err := authenticate(r, s.conn, s.reader.supported())
	if err != nil {
		if !s.isClosing() {
			slog.Warn("Peer authentication failed",
				slog.String("object", s.obj.Path),
				slog.Any("error", err),
			)
		}

		return
	}

	slog.Debug("Peer authenticated",
		slog.String("object", s.obj.Path),
		slog.Bool("unix_fd", unixFD),
	)

	for {
		msg, err := dbus.DecodeMessage(r)
		if err != nil {
			if !s.isClosing() && !errors.Is(err, io.EOF) {
				slog.Warn("Decode peer message", slog.Any("error", err))
			}

			return
		}

		call := s.dispatch(msg)
		if call == nil {
			continue
		}

		select {
		case s.calls <- call:
		case <-s.closing:
			return
		}
	}
}

// dispatch converts a method call into an [rpc.Call]. Calls that can not be
// served are answered directly and nil is returned.
func (s *peerServer) dispatch(msg *dbus.Message) *rpc.Call {
	var fds []*channel.Handle

	if numFDs, ok := header[uint32](msg, dbus.FieldUnixFDs); ok {
		var err error

		fds, err = s.reader.take(int(numFDs))
		if err != nil {
			slog.Warn("Drop peer message", slog.Any("error", err))
			return nil
		}
	}

	if msg.Type != dbus.TypeMethodCall {
		closeAll(fds)
		return nil
	}

	mc, err := parseMethodCall(msg)
	if err != nil {
		closeAll(fds)
		s.reply(msg.Serial(), nil, err)

		return nil
	}

	if mc.path == s.obj.Path && mc.iface == propertiesInterface {
		closeAll(fds)

		values, err := s.properties(mc.member, fromWireAll(msg.Body))
		if !mc.noReply {
			s.reply(mc.serial, values, err)
		}

		return nil
	}

	if mc.path != s.obj.Path || (mc.iface != "" && !s.obj.Implements(mc.iface)) {
		closeAll(fds)

		if !mc.noReply {
			s.reply(mc.serial, nil, fmt.Errorf("%s.%s on %s: %w", mc.iface, mc.member, mc.path, rpc.ErrUnknownMethod))
		}

		return nil
	}

	args, err := resolveFDs(msg.Body, fds)
	if err != nil {
		if !mc.noReply {
			s.reply(mc.serial, nil, err)
		}

		return nil
	}

	var reply rpc.ReplyFunc
	if !mc.noReply {
		reply = func(values []any, err error) {
			s.reply(mc.serial, values, err)
		}
	}

	return rpc.NewCall(mc.member, args, reply)
}

// properties answers reads of the org.freedesktop.DBus.Properties interface.
// The only property is Interfaces of the main interface, listing it along
// with its extensions.
func (s *peerServer) properties(member string, args []any) ([]any, error) {
	iface, _ := argAt[string](args, 0)

	props := map[string]dbus.Variant{}
	if iface == s.obj.Interface {
		ifaces := append([]string{s.obj.Interface}, s.obj.Extensions...)
		props["Interfaces"] = dbus.MakeVariant(ifaces)
	}

	switch member {
	case "Get":
		name, ok := argAt[string](args, 1)
		if !ok {
			return nil, fmt.Errorf("%w: Get needs interface and name", ErrInvalidMessage)
		}

		value, exists := props[name]
		if !exists {
			return nil, fmt.Errorf("%s.%s: %w", iface, name, ErrUnknownProperty)
		}

		return []any{value}, nil
	case "GetAll":
		return []any{props}, nil
	default:
		return nil, fmt.Errorf("%s.%s: %w", propertiesInterface, member, rpc.ErrUnknownMethod)
	}
}

func argAt[T any](args []any, idx int) (T, bool) {
	if idx >= len(args) {
		var zero T
		return zero, false
	}

	value, ok := args[idx].(T)

	return value, ok
}

func (s *peerServer) reply(serial uint32, values []any, err error) {
	encoded, encErr := encodeMessage(replyMessage(serial, values, err), s.serial.Add(1))
	if encErr != nil {
		slog.Warn("Encode reply", slog.Any("error", encErr))
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err = s.conn.Write(encoded)
	if err != nil && !s.isClosing() {
		slog.Debug("Write reply", slog.Any("error", err))
	}
}

// resolveFDs replaces descriptor indexes in the body by the received handles.
// Handles not referenced are closed.
func resolveFDs(body []any, fds []*channel.Handle) ([]any, error) {
	args := make([]any, len(body))
	used := make([]bool, len(fds))

	for idx, value := range body {
		fdIdx, ok := value.(dbus.UnixFDIndex)
		if !ok {
			args[idx] = fromWire(value)
			continue
		}

		if int(fdIdx) >= len(fds) || used[fdIdx] {
			closeAll(fds)
			return nil, fmt.Errorf("argument %d: %w: index %d", idx, ErrMissingFD, fdIdx)
		}

		args[idx] = fds[fdIdx]
		used[fdIdx] = true
	}

	for idx, fd := range fds {
		if !used[idx] {
			_ = fd.Close()
		}
	}

	return args, nil
}

func closeAll(handles []*channel.Handle) {
	for _, handle := range handles {
		_ = handle.Close()
	}
}
