// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

import (
	"fmt"
)

// PCMInfo describes the format of an audio stream.
type PCMInfo struct {
	Bits           uint8
	IsSigned       bool
	IsFloat        bool
	Freq           uint32
	NChannels      uint8
	BytesPerFrame  uint32
	BytesPerSecond uint32
	BigEndian      bool
}

// Format returns the sample format name, like "S16LE".
func (i PCMInfo) Format() string {
	kind := "U"

	switch {
	case i.IsFloat:
		kind = "F"
	case i.IsSigned:
		kind = "S"
	}

	endianness := "LE"
	if i.BigEndian {
		endianness = "BE"
	}

	return fmt.Sprintf("%s%d%s", kind, i.Bits, endianness)
}

// Caps returns the GStreamer caps describing the format of raw interleaved
// audio, like "audio/x-raw,format=S16LE,channels=2,rate=48000,layout=interleaved".
func (i PCMInfo) Caps() string {
	return fmt.Sprintf(
		"audio/x-raw,format=%s,channels=%d,rate=%d,layout=interleaved",
		i.Format(),
		i.NChannels,
		i.Freq,
	)
}
