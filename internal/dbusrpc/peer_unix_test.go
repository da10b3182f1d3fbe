// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package dbusrpc

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sys/unix"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const unixMapInterface = "org.qemu.Display1.Listener.Unix.Map"

var listenerObject = rpc.Object{
	Path:       "/org/qemu/Display1/Listener",
	Interface:  "org.qemu.Display1.Listener",
	Extensions: []string{unixMapInterface},
}

type client struct {
	conn   *net.UnixConn
	reader *bufio.Reader
	serial uint32
}

// startPeer serves the listener object on one end of a pair and returns an
// authenticated client on the other end.
func startPeer(t *testing.T) (*peerServer, *client) {
	t.Helper()

	local, remote, err := channel.Pair()
	require.NoError(t, err)

	t.Cleanup(func() { _ = local.Close() })

	server, err := newPeerServer(local, listenerObject)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	conn, err := remote.Conn()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	// The connection has its own descriptor. Closing it must be seen by the
	// server as peer gone.
	require.NoError(t, remote.Close())

	c := &client{conn: conn.(*net.UnixConn), reader: bufio.NewReader(conn)}

	_, err = io.WriteString(conn, "\x00AUTH EXTERNAL 30\r\nNEGOTIATE_UNIX_FD\r\nBEGIN\r\n")
	require.NoError(t, err)

	line, err := c.reader.ReadString('\n')
	require.NoError(t, err)
	assert.Regexp(t, "^OK [0-9a-f]{32}\r\n$", line)

	line, err = c.reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "AGREE_UNIX_FD\r\n", line)

	return server, c
}

func (c *client) send(t *testing.T, msg *dbus.Message, files ...*os.File) uint32 {
	t.Helper()

	c.serial++

	encoded, err := encodeMessage(msg, c.serial)
	require.NoError(t, err)

	var oob []byte

	if len(files) > 0 {
		fds := make([]int, len(files))
		for idx, file := range files {
			fds[idx] = int(file.Fd())
		}

		oob = unix.UnixRights(fds...)
	}

	_, _, err = c.conn.WriteMsgUnix(encoded, oob, nil)
	require.NoError(t, err)

	return c.serial
}

func (c *client) receive(t *testing.T) *dbus.Message {
	t.Helper()

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	msg, err := dbus.DecodeMessage(c.reader)
	require.NoError(t, err)

	return msg
}

func methodCallMessage(obj rpc.Object, member string, args ...any) *dbus.Message {
	msg := &dbus.Message{
		Type: dbus.TypeMethodCall,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldPath:      dbus.MakeVariant(dbus.ObjectPath(obj.Path)),
			dbus.FieldInterface: dbus.MakeVariant(obj.Interface),
			dbus.FieldMember:    dbus.MakeVariant(member),
		},
		Body: args,
	}

	if len(args) > 0 {
		msg.Headers[dbus.FieldSignature] = dbus.MakeVariant(dbus.SignatureOf(args...))
	}

	return msg
}

func next(t *testing.T, server *peerServer) *rpc.Call {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	call, err := server.Next(ctx)
	require.NoError(t, err)

	return call
}

func TestPeerServerCall(t *testing.T) {
	server, c := startPeer(t)

	serial := c.send(t, methodCallMessage(listenerObject, "MouseSet", int32(1), int32(2), int32(1)))

	call := next(t, server)
	assert.Equal(t, "MouseSet", call.Member)
	assert.Equal(t, []any{int32(1), int32(2), int32(1)}, call.Args)

	call.Return()

	reply := c.receive(t)
	assert.Equal(t, dbus.TypeMethodReply, reply.Type)

	replySerial, _ := header[uint32](reply, dbus.FieldReplySerial)
	assert.Equal(t, serial, replySerial)
}

func TestPeerServerOrder(t *testing.T) {
	server, c := startPeer(t)

	members := []string{"Disable", "MouseSet", "Disable", "UpdateMap"}
	for _, member := range members {
		msg := methodCallMessage(listenerObject, member)
		msg.Flags = dbus.FlagNoReplyExpected
		c.send(t, msg)
	}

	for _, member := range members {
		call := next(t, server)
		assert.Equal(t, member, call.Member)
		call.Return()
	}
}

func TestPeerServerDescriptor(t *testing.T) {
	server, c := startPeer(t)

	r, w, err := os.Pipe()
	require.NoError(t, err)

	defer r.Close()

	mapObject := listenerObject.WithInterface(unixMapInterface)
	msg := methodCallMessage(mapObject, "ScanoutMap", dbus.UnixFDIndex(0), uint32(0))
	msg.Headers[dbus.FieldUnixFDs] = dbus.MakeVariant(uint32(1))
	c.send(t, msg, w)
	require.NoError(t, w.Close())

	call := next(t, server)
	require.Len(t, call.Args, 2)

	handle, ok := call.Args[0].(*channel.Handle)
	require.True(t, ok, "descriptor argument")

	defer handle.Close()

	_, err = handle.File().Write([]byte("map"))
	require.NoError(t, err)

	buf := make([]byte, 3)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "map", string(buf))

	call.Return()
}

func TestPeerServerProperties(t *testing.T) {
	properties := listenerObject.WithInterface("org.freedesktop.DBus.Properties")
	interfaces := []string{"org.qemu.Display1.Listener", unixMapInterface}

	tests := []struct {
		name    string
		member  string
		args    []any
		msgType dbus.Type
		errName string
		body    []any
	}{
		{
			name:    "get interfaces",
			member:  "Get",
			args:    []any{listenerObject.Interface, "Interfaces"},
			msgType: dbus.TypeMethodReply,
			body:    []any{dbus.MakeVariant(interfaces)},
		},
		{
			name:    "get all",
			member:  "GetAll",
			args:    []any{listenerObject.Interface},
			msgType: dbus.TypeMethodReply,
			body: []any{map[string]dbus.Variant{
				"Interfaces": dbus.MakeVariant(interfaces),
			}},
		},
		{
			name:    "get all of extension",
			member:  "GetAll",
			args:    []any{unixMapInterface},
			msgType: dbus.TypeMethodReply,
			body:    []any{map[string]dbus.Variant{}},
		},
		{
			name:    "unknown property",
			member:  "Get",
			args:    []any{listenerObject.Interface, "Width"},
			msgType: dbus.TypeError,
			errName: errorUnknownProperty,
		},
		{
			name:    "set",
			member:  "Set",
			args:    []any{listenerObject.Interface, "Interfaces", dbus.MakeVariant("")},
			msgType: dbus.TypeError,
			errName: errorUnknownMethod,
		},
	}

	_, c := startPeer(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serial := c.send(t, methodCallMessage(properties, tt.member, tt.args...))

			reply := c.receive(t)
			assert.Equal(t, tt.msgType, reply.Type)

			replySerial, _ := header[uint32](reply, dbus.FieldReplySerial)
			assert.Equal(t, serial, replySerial)

			errName, _ := header[string](reply, dbus.FieldErrorName)
			assert.Equal(t, tt.errName, errName)

			if tt.body != nil {
				assert.Equal(t, tt.body, reply.Body)
			}
		})
	}
}

func TestPeerServerUnknownObject(t *testing.T) {
	server, c := startPeer(t)

	other := listenerObject.WithInterface("org.qemu.Display1.Listener.Unix.Other")
	c.send(t, methodCallMessage(other, "Foo"))

	reply := c.receive(t)
	assert.Equal(t, dbus.TypeError, reply.Type)

	name, _ := header[string](reply, dbus.FieldErrorName)
	assert.Equal(t, errorUnknownMethod, name)

	// The server keeps serving.
	c.send(t, methodCallMessage(listenerObject, "Disable"))
	call := next(t, server)
	assert.Equal(t, "Disable", call.Member)
	call.Fail(assert.AnError)

	reply = c.receive(t)
	assert.Equal(t, dbus.TypeError, reply.Type)
	assert.Equal(t, []any{assert.AnError.Error()}, reply.Body)
}

func TestPeerServerPeerClosed(t *testing.T) {
	server, c := startPeer(t)

	require.NoError(t, c.conn.Close())

	_, err := server.Next(context.Background())
	require.ErrorIs(t, err, rpc.ErrClosed)
}

func TestPeerServerClose(t *testing.T) {
	server, _ := startPeer(t)

	errs := make(chan error, 1)

	go func() {
		_, err := server.Next(context.Background())
		errs <- err
	}()

	require.NoError(t, server.Close())
	require.ErrorIs(t, <-errs, rpc.ErrClosed)
	require.NoError(t, server.Close())
}

func TestFDReaderClosedWhileReading(t *testing.T) {
	local, remote, err := channel.Pair()
	require.NoError(t, err)

	defer local.Close()
	defer remote.Close()

	conn, err := local.Conn()
	require.NoError(t, err)

	reader := newFDReader(conn)

	type result struct {
		n   int
		err error
	}

	results := make(chan result, 1)

	go func() {
		n, err := reader.Read(make([]byte, 4096))
		results <- result{n, err}
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Close())

	res := <-results
	assert.Equal(t, 0, res.n)
	assert.ErrorIs(t, res.err, io.EOF)
}

func TestPeerServerCloseWhileReading(t *testing.T) {
	server, c := startPeer(t)

	c.send(t, methodCallMessage(listenerObject, "Disable"))
	next(t, server).Return()
	c.receive(t)

	// The reader is blocked waiting for the next message now.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, server.Close())

	_, err := server.Next(context.Background())
	require.ErrorIs(t, err, rpc.ErrClosed)
}

func TestPeerServerAuthFailure(t *testing.T) {
	local, remote, err := channel.Pair()
	require.NoError(t, err)

	defer local.Close()

	server, err := newPeerServer(local, listenerObject)
	require.NoError(t, err)

	defer server.Close()

	require.NoError(t, remote.Close())

	_, err = server.Next(context.Background())
	require.ErrorIs(t, err, rpc.ErrClosed)
}
