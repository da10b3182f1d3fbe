// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"fmt"
	"testing"

	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestFromWire(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected any
	}{
		{
			name:     "plain",
			value:    uint32(5),
			expected: uint32(5),
		},
		{
			name:     "object path",
			value:    dbus.ObjectPath("/org/qemu/Display1/Console_0"),
			expected: "/org/qemu/Display1/Console_0",
		},
		{
			name:     "object paths",
			value:    []dbus.ObjectPath{"/a", "/b"},
			expected: []string{"/a", "/b"},
		},
		{
			name:     "variant",
			value:    dbus.MakeVariant(dbus.ObjectPath("/a")),
			expected: "/a",
		},
		{
			name: "interfaces and properties",
			value: map[string]map[string]dbus.Variant{
				"org.qemu.Display1.Console": {
					"Label": dbus.MakeVariant("virtio"),
					"Head":  dbus.MakeVariant(uint32(0)),
				},
			},
			expected: map[string]map[string]any{
				"org.qemu.Display1.Console": {
					"Label": "virtio",
					"Head":  uint32(0),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fromWire(tt.value))
		})
	}
}

func TestToWirePlain(t *testing.T) {
	wire, err := toWire([]any{uint32(1), "a", []byte{1}})
	assert.NoError(t, err)
	assert.Equal(t, []any{uint32(1), "a", []byte{1}}, wire)
}

func TestReplyMessage(t *testing.T) {
	tests := []struct {
		name      string
		values    []any
		err       error
		msgType   dbus.Type
		errName   string
		signature string
		body      []any
	}{
		{
			name:      "values",
			values:    []any{[]byte("pcm")},
			msgType:   dbus.TypeMethodReply,
			signature: "ay",
			body:      []any{[]byte("pcm")},
		},
		{
			name:    "empty",
			msgType: dbus.TypeMethodReply,
		},
		{
			name:      "failed",
			err:       assert.AnError,
			msgType:   dbus.TypeError,
			errName:   errorFailed,
			signature: "s",
			body:      []any{assert.AnError.Error()},
		},
		{
			name:      "unknown method",
			err:       fmt.Errorf("Foo: %w", rpc.ErrUnknownMethod),
			msgType:   dbus.TypeError,
			errName:   errorUnknownMethod,
			signature: "s",
			body:      []any{"Foo: unknown method"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := replyMessage(7, tt.values, tt.err)

			assert.Equal(t, tt.msgType, msg.Type)
			assert.Equal(t, tt.body, msg.Body)

			serial, _ := header[uint32](msg, dbus.FieldReplySerial)
			assert.Equal(t, uint32(7), serial)

			errName, _ := header[string](msg, dbus.FieldErrorName)
			assert.Equal(t, tt.errName, errName)

			signature, _ := header[dbus.Signature](msg, dbus.FieldSignature)
			assert.Equal(t, tt.signature, signature.String())
		})
	}
}
