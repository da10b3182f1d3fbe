// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/session"
)

// Upper limit of the silence returned for a single audio read. The size is
// requested by the peer.
const maxAudioRead = 1 << 20

// consume attaches the session and hands all events to handle until the
// session ends or ctx is done. The session is detached on return.
func consume[E any](
	ctx context.Context,
	sess *session.Session[E],
	handle func(event E),
) error {
	name := sess.Service().Name

	queue, err := sess.Attach(ctx)
	if err != nil {
		return err //nolint:wrapcheck
	}

	defer sess.Detach()

	slog.Debug("Listening", slog.String("service", name))

	for {
		event, err := queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}

			return err //nolint:wrapcheck
		}

		if disconnected, ok := any(event).(listener.Disconnected); ok {
			if disconnected.Err != nil {
				return &DisconnectedError{Service: name, Err: disconnected.Err}
			}

			return nil
		}

		handle(event)
	}
}

// eventLogger prints events and answers the ones that need an answer.
type eventLogger struct {
	log *slog.Logger
}

func (l eventLogger) console(event listener.ConsoleEvent) {
	switch e := event.(type) {
	case listener.Scanout:
		l.log.Info("Scanout",
			slog.Uint64("width", uint64(e.Width)),
			slog.Uint64("height", uint64(e.Height)),
			slog.Uint64("stride", uint64(e.Stride)),
			slog.Int("bytes", len(e.Data)),
		)
	case listener.Update:
		l.log.Info("Update",
			slog.Int("x", int(e.X)),
			slog.Int("y", int(e.Y)),
			slog.Int("w", int(e.W)),
			slog.Int("h", int(e.H)),
		)
	case listener.ScanoutDMABUF:
		l.log.Info("Scanout DMABUF",
			slog.Uint64("width", uint64(e.Width)),
			slog.Uint64("height", uint64(e.Height)),
			slog.Uint64("fourcc", uint64(e.Fourcc)),
			slog.Uint64("modifier", e.Modifier),
		)

		_ = e.FD.Close()
	case listener.UpdateDMABUF:
		l.log.Info("Update DMABUF",
			slog.Int("x", int(e.X)),
			slog.Int("y", int(e.Y)),
			slog.Int("w", int(e.W)),
			slog.Int("h", int(e.H)),
		)
		e.Ack.Done()
	case listener.ScanoutMap:
		l.log.Info("Scanout map",
			slog.Uint64("width", uint64(e.Width)),
			slog.Uint64("height", uint64(e.Height)),
			slog.Uint64("offset", uint64(e.Offset)),
		)

		_ = e.Memory.Close()
	case listener.UpdateMap:
		l.log.Info("Update map",
			slog.Int("x", int(e.X)),
			slog.Int("y", int(e.Y)),
			slog.Int("w", int(e.W)),
			slog.Int("h", int(e.H)),
		)
		e.Ack.Done()
	case listener.MouseSet:
		l.log.Info("Mouse set",
			slog.Int("x", int(e.X)),
			slog.Int("y", int(e.Y)),
			slog.Bool("on", e.On != 0),
		)
	case listener.CursorDefine:
		l.log.Info("Cursor define",
			slog.Int("width", int(e.Width)),
			slog.Int("height", int(e.Height)),
		)
	case listener.Disable:
		l.log.Info("Disable")
	}
}

func (l eventLogger) audio(event listener.AudioEvent) {
	switch e := event.(type) {
	case listener.AudioInit:
		l.log.Info("Audio init",
			slog.Uint64("id", e.ID),
			slog.String("caps", e.Info.Caps()),
		)
	case listener.AudioFini:
		l.log.Info("Audio fini", slog.Uint64("id", e.ID))
	case listener.AudioSetEnabled:
		l.log.Info("Audio enabled",
			slog.Uint64("id", e.ID),
			slog.Bool("enabled", e.Enabled),
		)
	case listener.AudioSetVolume:
		l.log.Info("Audio volume",
			slog.Uint64("id", e.ID),
			slog.Bool("mute", e.Volume.Mute),
		)
	case listener.AudioWrite:
		l.log.Debug("Audio write",
			slog.Uint64("id", e.ID),
			slog.Int("bytes", len(e.Data)),
		)
	case listener.AudioRead:
		// No recording source, so the guest records silence.
		e.Reply.Send(make([]byte, min(e.Size, maxAudioRead)))
	}
}

func (l eventLogger) clipboard(event listener.ClipboardEvent) {
	switch e := event.(type) {
	case listener.ClipboardRegister:
		l.log.Info("Clipboard register")
	case listener.ClipboardUnregister:
		l.log.Info("Clipboard unregister")
	case listener.ClipboardGrab:
		l.log.Info("Clipboard grab",
			slog.String("selection", e.Selection.String()),
			slog.Uint64("serial", uint64(e.Serial)),
			slog.Any("mimes", e.Mimes),
		)
	case listener.ClipboardRelease:
		l.log.Info("Clipboard release",
			slog.String("selection", e.Selection.String()),
		)
	case listener.ClipboardRequest:
		l.log.Info("Clipboard request",
			slog.String("selection", e.Selection.String()),
			slog.Any("mimes", e.Mimes),
		)
		e.Reply.Fail(ErrNoClipboardData)
	}
}
