// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/session"
)

// Audio is the audio backend of the VM.
type Audio struct {
	establisher session.Establisher
}

// OutListener returns a new detached session for playback streams.
func (a *Audio) OutListener() *session.Session[listener.AudioEvent] {
	return a.session(AudioOutService(), func(queue *bridge.Queue[listener.AudioEvent]) listener.Dispatcher {
		return listener.NewAudioOut(queue)
	})
}

// InListener returns a new detached session for recording streams.
func (a *Audio) InListener() *session.Session[listener.AudioEvent] {
	return a.session(AudioInService(), func(queue *bridge.Queue[listener.AudioEvent]) listener.Dispatcher {
		return listener.NewAudioIn(queue)
	})
}

func (a *Audio) session(
	svc session.Service,
	fn session.DispatcherFunc[listener.AudioEvent],
) *session.Session[listener.AudioEvent] {
	return session.New(session.Config[listener.AudioEvent]{
		Establisher:   a.establisher,
		Service:       svc,
		NewDispatcher: fn,
	})
}
