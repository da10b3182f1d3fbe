// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/rpc"
)

// AudioEvent is an event received by an audio listener.
type AudioEvent interface {
	audioEvent()
}

// AudioInit starts a new stream.
type AudioInit struct {
	ID   uint64
	Info PCMInfo
}

// AudioFini ends a stream. The ID may be reused by a later [AudioInit].
type AudioFini struct {
	ID uint64
}

// AudioSetEnabled pauses or resumes a stream.
type AudioSetEnabled struct {
	ID      uint64
	Enabled bool
}

// Volume is the volume of a stream with one byte per channel.
type Volume struct {
	Mute   bool
	Volume []byte
}

// AudioSetVolume changes the volume of a stream.
type AudioSetVolume struct {
	ID     uint64
	Volume Volume
}

// AudioWrite carries PCM data of an output stream.
type AudioWrite struct {
	ID   uint64
	Data []byte
}

// AudioRead requests PCM data for an input stream. The consumer must answer
// Reply with up to Size bytes.
type AudioRead struct {
	ID    uint64
	Size  uint64
	Reply *bridge.Reply[[]byte]
}

func (AudioInit) audioEvent()       {}
func (AudioFini) audioEvent()       {}
func (AudioSetEnabled) audioEvent() {}
func (AudioSetVolume) audioEvent()  {}
func (AudioWrite) audioEvent()      {}
func (AudioRead) audioEvent()       {}

// Direction is the direction of audio streams of an audio listener.
type Direction int

// Audio directions.
const (
	Out Direction = iota
	In
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}

	return "out"
}

// Audio dispatches calls of the org.qemu.Display1.AudioOutListener and
// org.qemu.Display1.AudioInListener interfaces.
//
// It keeps track of live streams. Calls for streams that are not live are
// protocol violations and dropped.
type Audio struct {
	base[AudioEvent]

	direction Direction
	streams   map[uint64]struct{}
}

var _ Dispatcher = (*Audio)(nil)

// NewAudioOut creates a new [Audio] dispatcher for playback streams.
func NewAudioOut(queue *bridge.Queue[AudioEvent]) *Audio {
	return newAudio(queue, Out)
}

// NewAudioIn creates a new [Audio] dispatcher for recording streams.
func NewAudioIn(queue *bridge.Queue[AudioEvent]) *Audio {
	return newAudio(queue, In)
}

func newAudio(queue *bridge.Queue[AudioEvent], direction Direction) *Audio {
	return &Audio{
		base:      base[AudioEvent]{queue: queue},
		direction: direction,
		streams:   make(map[uint64]struct{}),
	}
}

// Dispatch implements [Dispatcher].
//
//nolint:cyclop
func (d *Audio) Dispatch(ctx context.Context, call *rpc.Call) error {
	var (
		event AudioEvent
		reply *bridge.Reply[[]byte]
		a     = argsOf(call)
		id    = arg[uint64](a)
	)

	switch {
	case call.Member == "Init":
		event = AudioInit{
			ID: id,
			Info: PCMInfo{
				Bits:           arg[uint8](a),
				IsSigned:       arg[bool](a),
				IsFloat:        arg[bool](a),
				Freq:           arg[uint32](a),
				NChannels:      arg[uint8](a),
				BytesPerFrame:  arg[uint32](a),
				BytesPerSecond: arg[uint32](a),
				BigEndian:      arg[bool](a),
			},
		}
	case call.Member == "Fini":
		event = AudioFini{ID: id}
	case call.Member == "SetEnabled":
		event = AudioSetEnabled{ID: id, Enabled: arg[bool](a)}
	case call.Member == "SetVolume":
		event = AudioSetVolume{
			ID: id,
			Volume: Volume{
				Mute:   arg[bool](a),
				Volume: arg[[]byte](a),
			},
		}
	case call.Member == "Write" && d.direction == Out:
		event = AudioWrite{ID: id, Data: arg[[]byte](a)}
	case call.Member == "Read" && d.direction == In:
		reply = bridge.NewReply[[]byte]()
		event = AudioRead{ID: id, Size: arg[uint64](a), Reply: reply}
	default:
		violation(call, rpc.ErrUnknownMethod)
		return nil
	}

	if err := a.done(); err != nil {
		violation(call, err)
		return nil
	}

	if err := d.track(call.Member, id); err != nil {
		violation(call, err)
		return nil
	}

	if err := d.push(event); err != nil {
		return fmt.Errorf("push %s: %w", call.Member, err)
	}

	if reply == nil {
		return nil
	}

	return d.waitRead(ctx, call, reply)
}

func (d *Audio) waitRead(ctx context.Context, call *rpc.Call, reply *bridge.Reply[[]byte]) error {
	var data []byte

	err := await(ctx, d.queue, func(ctx context.Context) error {
		var err error

		data, err = reply.Wait(ctx)

		return err
	})

	switch {
	case err == nil:
		call.Return(data)
		return nil
	case ctx.Err() != nil, errors.Is(err, bridge.ErrConsumerGone):
		return err
	default:
		// The consumer failed the read. The stream stays usable.
		slog.Debug("Audio read failed", slog.Any("error", err))
		call.Fail(err)

		return nil
	}
}

// track updates the live streams for the call. Init adds a stream, Fini
// removes it. All other calls require the stream to be live.
func (d *Audio) track(member string, id uint64) error {
	_, live := d.streams[id]

	switch {
	case member == "Init" && live:
		return fmt.Errorf("%w: %d", ErrDuplicateStream, id)
	case member == "Init":
		d.streams[id] = struct{}{}
	case !live:
		return fmt.Errorf("%w: %d", ErrUnknownStream, id)
	case member == "Fini":
		delete(d.streams, id)
	}

	return nil
}
