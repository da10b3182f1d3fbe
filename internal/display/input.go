// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"strconv"
	"strings"
)

// Modifiers is the set of active keyboard lock modifiers.
type Modifiers uint32

// Keyboard lock modifiers.
const (
	ModScroll Modifiers = 1 << iota
	ModNum
	ModCaps
)

// Has returns true if all modifiers in m are set.
func (m Modifiers) Has(mods Modifiers) bool {
	return m&mods == mods
}

func (m Modifiers) String() string {
	names := []string{}

	for _, mod := range []struct {
		flag Modifiers
		name string
	}{
		{ModScroll, "scroll"},
		{ModNum, "num"},
		{ModCaps, "caps"},
	} {
		if m.Has(mod.flag) {
			names = append(names, mod.name)
		}
	}

	if unknown := m &^ (ModScroll | ModNum | ModCaps); unknown != 0 {
		names = append(names, "0x"+strconv.FormatUint(uint64(unknown), 16))
	}

	return strings.Join(names, "|")
}

// Keyboard is the keyboard of a console.
type Keyboard struct {
	proxy
}

// Press sends a key press of the given QEMU key code.
func (k *Keyboard) Press(ctx context.Context, keycode uint32) error {
	return k.call(ctx, "Press", keycode)
}

// Release sends a key release of the given QEMU key code.
func (k *Keyboard) Release(ctx context.Context, keycode uint32) error {
	return k.call(ctx, "Release", keycode)
}

// Modifiers returns the lock modifiers the guest has set.
func (k *Keyboard) Modifiers(ctx context.Context) (Modifiers, error) {
	mods, err := property[uint32](ctx, k.proxy, "Modifiers")
	return Modifiers(mods), err
}

// Button is a mouse button.
type Button uint32

// Mouse buttons.
const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
	ButtonWheelUp
	ButtonWheelDown
	ButtonSide
	ButtonExtra
)

var buttonNames = [...]string{
	ButtonLeft:      "left",
	ButtonMiddle:    "middle",
	ButtonRight:     "right",
	ButtonWheelUp:   "wheel up",
	ButtonWheelDown: "wheel down",
	ButtonSide:      "side",
	ButtonExtra:     "extra",
}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}

	return "button(" + strconv.FormatUint(uint64(b), 10) + ")"
}

// Mouse is the pointer device of a console.
type Mouse struct {
	proxy
}

// Press sends a button press.
func (m *Mouse) Press(ctx context.Context, button Button) error {
	return m.call(ctx, "Press", uint32(button))
}

// Release sends a button release.
func (m *Mouse) Release(ctx context.Context, button Button) error {
	return m.call(ctx, "Release", uint32(button))
}

// SetAbsPosition moves the pointer to the given position. Only valid if the
// mouse is absolute.
func (m *Mouse) SetAbsPosition(ctx context.Context, x, y uint32) error {
	return m.call(ctx, "SetAbsPosition", x, y)
}

// IsAbsolute returns true if the guest uses an absolute pointer device.
func (m *Mouse) IsAbsolute(ctx context.Context) (bool, error) {
	return property[bool](ctx, m.proxy, "IsAbsolute")
}
