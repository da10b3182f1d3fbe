// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener_test

import (
	"context"
	"testing"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/listener"
	"github.com/aibor/qemu-display/internal/rpc/rpctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initArgs(id uint64) []any {
	return []any{
		id,
		uint8(16),     // bits
		true,          // signed
		false,         // float
		uint32(48000), // freq
		uint8(2),      // channels
		uint32(4),     // bytes per frame
		uint32(192000),
		false, // big endian
	}
}

func TestAudioOut(t *testing.T) {
	queue := bridge.NewQueue[listener.AudioEvent]()
	s := serve(t, listener.NewAudioOut(queue))

	rpctest.RequireCall(t, s.peer, "Init", initArgs(7)...)
	rpctest.RequireCall(t, s.peer, "SetEnabled", uint64(7), true)
	rpctest.RequireCall(t, s.peer, "SetVolume", uint64(7), false, []byte{255, 128})
	rpctest.RequireCall(t, s.peer, "Write", uint64(7), []byte{1, 2, 3, 4})
	rpctest.RequireCall(t, s.peer, "Fini", uint64(7))

	expected := []listener.AudioEvent{
		listener.AudioInit{
			ID: 7,
			Info: listener.PCMInfo{
				Bits:           16,
				IsSigned:       true,
				Freq:           48000,
				NChannels:      2,
				BytesPerFrame:  4,
				BytesPerSecond: 192000,
			},
		},
		listener.AudioSetEnabled{ID: 7, Enabled: true},
		listener.AudioSetVolume{ID: 7, Volume: listener.Volume{Volume: []byte{255, 128}}},
		listener.AudioWrite{ID: 7, Data: []byte{1, 2, 3, 4}},
		listener.AudioFini{ID: 7},
	}

	for _, event := range expected {
		assert.Equal(t, event, receive(t, queue))
	}
}

func TestAudioStreamTracking(t *testing.T) {
	tests := []struct {
		name        string
		calls       [][]any
		expectedErr error
	}{
		{
			name:        "write before init",
			calls:       [][]any{{"Write", uint64(1), []byte{0}}},
			expectedErr: listener.ErrUnknownStream,
		},
		{
			name: "write after fini",
			calls: [][]any{
				append([]any{"Init"}, initArgs(1)...),
				{"Fini", uint64(1)},
				{"Write", uint64(1), []byte{0}},
			},
			expectedErr: listener.ErrUnknownStream,
		},
		{
			name: "duplicate init",
			calls: [][]any{
				append([]any{"Init"}, initArgs(1)...),
				append([]any{"Init"}, initArgs(1)...),
			},
			expectedErr: listener.ErrDuplicateStream,
		},
		{
			name:        "read on output listener",
			calls:       [][]any{{"Read", uint64(1), uint64(16)}},
			expectedErr: listener.ErrProtocolViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := bridge.NewQueue[listener.AudioEvent]()
			s := serve(t, listener.NewAudioOut(queue))

			var err error

			for _, call := range tt.calls {
				_, err = s.peer.Call(context.Background(), call[0].(string), call[1:]...)
			}

			require.ErrorIs(t, err, tt.expectedErr)
			require.ErrorIs(t, err, listener.ErrProtocolViolation)

			// The offending call must not produce an event.
			assert.Equal(t, len(tt.calls)-1, queue.Len())

			// Streams can be initialized again after a violation.
			rpctest.RequireCall(t, s.peer, "Init", initArgs(99)...)
		})
	}
}

func TestAudioInRead(t *testing.T) {
	queue := bridge.NewQueue[listener.AudioEvent]()
	s := serve(t, listener.NewAudioIn(queue))
	ctx := context.Background()

	rpctest.RequireCall(t, s.peer, "Init", initArgs(3)...)
	assert.IsType(t, listener.AudioInit{}, receive(t, queue))

	pending, err := s.peer.Send(ctx, "Read", uint64(3), uint64(4))
	require.NoError(t, err)

	read, ok := receive(t, queue).(listener.AudioRead)
	require.True(t, ok, "must be read event")
	assert.Equal(t, uint64(4), read.Size)

	read.Reply.Send([]byte{9, 9, 9, 9})

	values, err := pending.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{[]byte{9, 9, 9, 9}}, values)

	pending, err = s.peer.Send(ctx, "Read", uint64(3), uint64(4))
	require.NoError(t, err)

	read, ok = receive(t, queue).(listener.AudioRead)
	require.True(t, ok, "must be read event")

	read.Reply.Fail(assert.AnError)

	_, err = pending.Wait(ctx)
	require.ErrorIs(t, err, assert.AnError)

	_, err = s.peer.Call(ctx, "Write", uint64(3), []byte{0})
	require.ErrorIs(t, err, listener.ErrProtocolViolation, "write on input listener")

	_, err = s.peer.Call(ctx, "Read", uint64(4), uint64(4))
	require.ErrorIs(t, err, listener.ErrUnknownStream)
}

func TestPCMInfoCaps(t *testing.T) {
	tests := []struct {
		name     string
		info     listener.PCMInfo
		expected string
	}{
		{
			name:     "s16le stereo",
			info:     listener.PCMInfo{Bits: 16, IsSigned: true, Freq: 48000, NChannels: 2},
			expected: "audio/x-raw,format=S16LE,channels=2,rate=48000,layout=interleaved",
		},
		{
			name:     "f32be mono",
			info:     listener.PCMInfo{Bits: 32, IsFloat: true, IsSigned: true, Freq: 44100, NChannels: 1, BigEndian: true},
			expected: "audio/x-raw,format=F32BE,channels=1,rate=44100,layout=interleaved",
		},
		{
			name:     "u8",
			info:     listener.PCMInfo{Bits: 8, Freq: 8000, NChannels: 1},
			expected: "audio/x-raw,format=U8LE,channels=1,rate=8000,layout=interleaved",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.info.Caps())
		})
	}
}
