// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"strconv"

	"github.com/aibor/qemu-display/internal/rpc"
)

// Bus name and object paths of the display server.
const (
	ServiceName = "org.qemu"
	RootPath    = "/org/qemu/Display1"

	consolePrefix = RootPath + "/Console_"
	chardevPrefix = RootPath + "/Chardev_"
	audioPath     = RootPath + "/Audio"
	clipboardPath = RootPath + "/Clipboard"
	vmPath        = RootPath + "/VM"

	listenerPath         = RootPath + "/Listener"
	audioOutListenerPath = RootPath + "/AudioOutListener"
	audioInListenerPath  = RootPath + "/AudioInListener"
)

// Interface names.
const (
	ConsoleInterface          = "org.qemu.Display1.Console"
	KeyboardInterface         = "org.qemu.Display1.Keyboard"
	MouseInterface            = "org.qemu.Display1.Mouse"
	AudioInterface            = "org.qemu.Display1.Audio"
	ClipboardInterface        = "org.qemu.Display1.Clipboard"
	ChardevInterface          = "org.qemu.Display1.Chardev"
	VMInterface               = "org.qemu.Display1.VM"
	ListenerInterface         = "org.qemu.Display1.Listener"
	ListenerUnixMapInterface  = "org.qemu.Display1.Listener.Unix.Map"
	AudioOutListenerInterface = "org.qemu.Display1.AudioOutListener"
	AudioInListenerInterface  = "org.qemu.Display1.AudioInListener"

	usbredirChardevName = "org.qemu.usbredir"
)

func object(path, iface string) rpc.Object {
	return rpc.Object{
		Destination: ServiceName,
		Path:        path,
		Interface:   iface,
	}
}

// ConsolePath returns the object path of the console with the given index.
func ConsolePath(idx uint32) string {
	return consolePrefix + strconv.FormatUint(uint64(idx), 10)
}

// ChardevPath returns the object path of the chardev with the given id.
func ChardevPath(id string) string {
	return chardevPrefix + id
}
