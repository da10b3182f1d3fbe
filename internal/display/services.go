// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"strconv"

	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/aibor/qemu-display/internal/session"
)

// ConsoleService describes the listener of the console with the given index.
func ConsoleService(idx uint32) session.Service {
	return session.Service{
		Name:     "console " + strconv.FormatUint(uint64(idx), 10),
		Object:   object(ConsolePath(idx), ConsoleInterface),
		Register: "RegisterListener",
		Listener: rpc.Object{
			Path:       listenerPath,
			Interface:  ListenerInterface,
			Extensions: []string{ListenerUnixMapInterface},
		},
	}
}

// AudioOutService describes the audio playback listener.
func AudioOutService() session.Service {
	return session.Service{
		Name:     "audio out",
		Object:   object(audioPath, AudioInterface),
		Register: "RegisterOutListener",
		Listener: rpc.Object{Path: audioOutListenerPath, Interface: AudioOutListenerInterface},
	}
}

// AudioInService describes the audio recording listener.
func AudioInService() session.Service {
	return session.Service{
		Name:     "audio in",
		Object:   object(audioPath, AudioInterface),
		Register: "RegisterInListener",
		Listener: rpc.Object{Path: audioInListenerPath, Interface: AudioInListenerInterface},
	}
}

// ClipboardService describes the clipboard listener. It is exported on the
// shared bus at the same path as the server's clipboard object.
func ClipboardService() session.Service {
	return session.Service{
		Name:       "clipboard",
		Object:     object(clipboardPath, ClipboardInterface),
		Register:   "Register",
		Unregister: "Unregister",
		Transport:  session.Shared,
		Listener:   rpc.Object{Path: clipboardPath, Interface: ClipboardInterface},
	}
}
