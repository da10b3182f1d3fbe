// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/godbus/dbus/v5"
)

// Offset of the serial in the fixed message header.
const serialOffset = 8

// encodeMessage encodes the message with the given serial. godbus only
// assigns serials to messages sent on its own connections, so the serial is
// written into the encoded header.
func encodeMessage(msg *dbus.Message, serial uint32) ([]byte, error) {
	var buf bytes.Buffer

	err := msg.EncodeTo(&buf, binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	encoded := buf.Bytes()
	binary.LittleEndian.PutUint32(encoded[serialOffset:], serial)

	return encoded, nil
}

func header[T any](msg *dbus.Message, field dbus.HeaderField) (T, bool) {
	variant, exists := msg.Headers[field]
	if !exists {
		var zero T
		return zero, false
	}

	value, ok := variant.Value().(T)

	return value, ok
}

type methodCall struct {
	path    string
	iface   string
	member  string
	numFDs  uint32
	noReply bool
	serial  uint32
}

func parseMethodCall(msg *dbus.Message) (methodCall, error) {
	path, ok := header[dbus.ObjectPath](msg, dbus.FieldPath)
	if !ok {
		return methodCall{}, fmt.Errorf("%w: no path", ErrInvalidMessage)
	}

	member, ok := header[string](msg, dbus.FieldMember)
	if !ok {
		return methodCall{}, fmt.Errorf("%w: no member", ErrInvalidMessage)
	}

	iface, _ := header[string](msg, dbus.FieldInterface)
	numFDs, _ := header[uint32](msg, dbus.FieldUnixFDs)

	return methodCall{
		path:    string(path),
		iface:   iface,
		member:  member,
		numFDs:  numFDs,
		noReply: msg.Flags&dbus.FlagNoReplyExpected != 0,
		serial:  msg.Serial(),
	}, nil
}

func replyMessage(serial uint32, values []any, err error) *dbus.Message {
	msg := &dbus.Message{
		Type: dbus.TypeMethodReply,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldReplySerial: dbus.MakeVariant(serial),
		},
	}

	if err != nil {
		name := errorFailed

		switch {
		case errors.Is(err, rpc.ErrUnknownMethod):
			name = errorUnknownMethod
		case errors.Is(err, ErrUnknownProperty):
			name = errorUnknownProperty
		}

		msg.Type = dbus.TypeError
		msg.Headers[dbus.FieldErrorName] = dbus.MakeVariant(name)
		values = []any{err.Error()}
	}

	if len(values) > 0 {
		msg.Headers[dbus.FieldSignature] = dbus.MakeVariant(dbus.SignatureOf(values...))
		msg.Body = values
	}

	return msg
}
