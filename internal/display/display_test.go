// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display_test

import (
	"context"
	"testing"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/display"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/aibor/qemu-display/internal/rpc/rpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func obj(path, iface string) rpc.Object {
	return rpc.Object{Destination: display.ServiceName, Path: path, Interface: iface}
}

func newDisplay(t *testing.T, objects map[string][]string) (*display.Display, *rpctest.Bus) {
	t.Helper()

	bus := rpctest.New(t)
	bus.SetObjects(objects)

	d, err := display.New(context.Background(), bus, channel.FDPasser{})
	require.NoError(t, err)

	return d, bus
}

var vmObjects = map[string][]string{
	display.ConsolePath(0):         {display.ConsoleInterface, display.KeyboardInterface, display.MouseInterface},
	display.ConsolePath(10):        {display.ConsoleInterface},
	display.ConsolePath(1):         {display.ConsoleInterface},
	display.RootPath + "/VM":       {display.VMInterface},
	display.ChardevPath("usb1"):    {display.ChardevInterface},
	display.ChardevPath("serial0"): {display.ChardevInterface},
}

func TestDisplayObjects(t *testing.T) {
	d, _ := newDisplay(t, vmObjects)

	assert.Equal(t, []uint32{0, 1, 10}, d.Consoles())

	console, err := d.Console(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), console.Index)

	_, err = d.Console(5)
	require.ErrorIs(t, err, display.ErrNotFound)

	_, err = d.Audio()
	require.ErrorIs(t, err, display.ErrNotFound)

	_, err = d.Clipboard()
	require.ErrorIs(t, err, display.ErrNotFound)

	_, err = d.VM()
	require.NoError(t, err)

	var ids []string
	for _, chardev := range d.Chardevs() {
		ids = append(ids, chardev.ID)
	}

	assert.Equal(t, []string{"serial0", "usb1"}, ids)
}

func TestDisplayObjectsFail(t *testing.T) {
	_, err := display.New(context.Background(), failingObjects{rpctest.New(t)}, channel.FDPasser{})
	require.ErrorIs(t, err, assert.AnError)
}

type failingObjects struct {
	*rpctest.Bus
}

func (failingObjects) Objects(context.Context, rpc.Object) (map[string][]string, error) {
	return nil, assert.AnError
}

func TestConsoleProperties(t *testing.T) {
	d, bus := newDisplay(t, vmObjects)
	ctx := context.Background()
	consoleObj := obj(display.ConsolePath(0), display.ConsoleInterface)

	bus.SetProperty(consoleObj, "Label", "virtio-gpu")
	bus.SetProperty(consoleObj, "Head", uint32(1))
	bus.SetProperty(consoleObj, "Type", "Graphic")
	bus.SetProperty(consoleObj, "Width", uint32(1024))
	bus.SetProperty(consoleObj, "Height", uint32(768))

	console, err := d.Console(0)
	require.NoError(t, err)

	label, err := console.Label(ctx)
	require.NoError(t, err)
	assert.Equal(t, "virtio-gpu", label)

	head, err := console.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), head)

	kind, err := console.Type(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Graphic", kind)

	width, err := console.Width(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), width)

	height, err := console.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(768), height)

	_, err = console.Mouse.IsAbsolute(ctx)
	require.ErrorIs(t, err, rpctest.ErrUnknownProperty)
}

func TestConsoleCalls(t *testing.T) {
	d, bus := newDisplay(t, vmObjects)
	ctx := context.Background()

	console, err := d.Console(0)
	require.NoError(t, err)

	tests := []struct {
		name   string
		call   func() error
		iface  string
		method string
		args   []any
	}{
		{
			name:   "key press",
			call:   func() error { return console.Keyboard.Press(ctx, 30) },
			iface:  display.KeyboardInterface,
			method: "Press",
			args:   []any{uint32(30)},
		},
		{
			name:   "key release",
			call:   func() error { return console.Keyboard.Release(ctx, 30) },
			iface:  display.KeyboardInterface,
			method: "Release",
			args:   []any{uint32(30)},
		},
		{
			name:   "button press",
			call:   func() error { return console.Mouse.Press(ctx, display.ButtonRight) },
			iface:  display.MouseInterface,
			method: "Press",
			args:   []any{uint32(2)},
		},
		{
			name:   "button release",
			call:   func() error { return console.Mouse.Release(ctx, display.ButtonWheelUp) },
			iface:  display.MouseInterface,
			method: "Release",
			args:   []any{uint32(3)},
		},
		{
			name:   "abs position",
			call:   func() error { return console.Mouse.SetAbsPosition(ctx, 10, 20) },
			iface:  display.MouseInterface,
			method: "SetAbsPosition",
			args:   []any{uint32(10), uint32(20)},
		},
		{
			name: "ui info",
			call: func() error {
				return console.SetUIInfo(ctx, display.UIInfo{
					WidthMM:  300,
					HeightMM: 200,
					XOff:     -1,
					Width:    1920,
					Height:   1080,
				})
			},
			iface:  display.ConsoleInterface,
			method: "SetUIInfo",
			args: []any{
				uint16(300), uint16(200),
				int32(-1), int32(0),
				uint32(1920), uint32(1080),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(bus.Calls(tt.method))

			require.NoError(t, tt.call())

			records := bus.Calls(tt.method)
			require.Len(t, records, before+1)

			record := records[len(records)-1]
			assert.Equal(t, obj(display.ConsolePath(0), tt.iface), record.Object)
			assert.Equal(t, tt.args, record.Args)
		})
	}
}

func TestKeyboardModifiers(t *testing.T) {
	d, bus := newDisplay(t, vmObjects)

	bus.SetProperty(obj(display.ConsolePath(0), display.KeyboardInterface), "Modifiers", uint32(5))

	console, err := d.Console(0)
	require.NoError(t, err)

	mods, err := console.Keyboard.Modifiers(context.Background())
	require.NoError(t, err)

	assert.True(t, mods.Has(display.ModScroll|display.ModCaps))
	assert.False(t, mods.Has(display.ModNum))
}

func TestModifiersString(t *testing.T) {
	tests := []struct {
		mods     display.Modifiers
		expected string
	}{
		{0, ""},
		{display.ModNum, "num"},
		{display.ModScroll | display.ModCaps, "scroll|caps"},
		{display.ModCaps | 0x10, "caps|0x10"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.mods.String())
		})
	}
}

func TestButtonString(t *testing.T) {
	assert.Equal(t, "left", display.ButtonLeft.String())
	assert.Equal(t, "wheel down", display.ButtonWheelDown.String())
	assert.Equal(t, "extra", display.ButtonExtra.String())
	assert.Equal(t, "button(9)", display.Button(9).String())
}

func TestClipboardCalls(t *testing.T) {
	objects := map[string][]string{
		display.RootPath + "/Clipboard": {display.ClipboardInterface},
	}
	d, bus := newDisplay(t, objects)
	ctx := context.Background()
	clipboardObj := obj(display.RootPath+"/Clipboard", display.ClipboardInterface)

	bus.HandleCall(clipboardObj, "Request", func(args []any) ([]any, error) {
		assert.Equal(t, []any{uint32(listener.SelectionPrimary), []string{"text/plain"}}, args)
		return []any{"text/plain", []byte("hello")}, nil
	})

	clipboard, err := d.Clipboard()
	require.NoError(t, err)

	require.NoError(t, clipboard.Grab(ctx, listener.SelectionClipboard, 3, []string{"text/plain"}))
	require.NoError(t, clipboard.Release(ctx, listener.SelectionClipboard))

	data, err := clipboard.Request(ctx, listener.SelectionPrimary, []string{"text/plain"})
	require.NoError(t, err)
	assert.Equal(t, listener.ClipboardData{Mime: "text/plain", Data: []byte("hello")}, data)

	grabs := bus.Calls("Grab")
	require.Len(t, grabs, 1)
	assert.Equal(t, []any{uint32(0), uint32(3), []string{"text/plain"}}, grabs[0].Args)

	bus.FailCall(clipboardObj, "Request", assert.AnError)

	_, err = clipboard.Request(ctx, listener.SelectionPrimary, nil)
	require.ErrorIs(t, err, assert.AnError)
}

func TestVMProperties(t *testing.T) {
	d, bus := newDisplay(t, vmObjects)
	ctx := context.Background()
	vmObj := obj(display.RootPath+"/VM", display.VMInterface)

	bus.SetProperty(vmObj, "Name", "guest")
	bus.SetProperty(vmObj, "UUID", "00000000-0000-0000-0000-000000000000")
	bus.SetProperty(vmObj, "ConsoleIDs", []uint32{0, 1})

	vm, err := d.VM()
	require.NoError(t, err)

	name, err := vm.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "guest", name)

	uuid, err := vm.UUID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", uuid)

	ids, err := vm.ConsoleIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, ids)
}

func TestWatch(t *testing.T) {
	d, bus := newDisplay(t, vmObjects)
	root := rpc.Object{Path: display.RootPath}

	ctx, cancel := context.WithTimeout(context.Background(), rpctest.Timeout)
	defer cancel()

	changes, err := d.Watch(ctx)
	require.NoError(t, err)

	bus.Emit(root, "InterfacesAdded", "broken")
	bus.Emit(root, "InterfacesAdded", display.ConsolePath(2), map[string]map[string]any{
		display.ConsoleInterface:  {},
		display.KeyboardInterface: {},
	})

	change := <-changes
	assert.Equal(t, display.ObjectChange{
		Path:       display.ConsolePath(2),
		Interfaces: []string{display.ConsoleInterface, display.KeyboardInterface},
	}, change)
	assert.Equal(t, []uint32{0, 1, 2, 10}, d.Consoles())

	bus.Emit(root, "InterfacesRemoved", display.ConsolePath(2), []string{
		display.ConsoleInterface,
		display.KeyboardInterface,
	})

	change = <-changes
	assert.True(t, change.Removed)

	_, err = d.Console(2)
	require.ErrorIs(t, err, display.ErrNotFound)

	cancel()

	for range changes {
	}
}

func TestPeerPID(t *testing.T) {
	bus := rpctest.New(t)
	busObj := rpc.Object{
		Destination: "org.freedesktop.DBus",
		Path:        "/org/freedesktop/DBus",
		Interface:   "org.freedesktop.DBus",
	}

	bus.HandleCall(busObj, "GetConnectionUnixProcessID", func(args []any) ([]any, error) {
		assert.Equal(t, []any{display.ServiceName}, args)
		return []any{uint32(4242)}, nil
	})

	pid, err := display.PeerPID(context.Background(), bus)
	require.NoError(t, err)
	assert.Equal(t, uint32(4242), pid)
}
