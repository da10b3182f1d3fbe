// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aibor/qemu-display/internal/bridge"
	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
)

// ConsoleEvent is an event received by a console listener.
type ConsoleEvent interface {
	consoleEvent()
}

// Scanout replaces the whole frame buffer with the given pixel data.
type Scanout struct {
	Width  uint32
	Height uint32
	Stride uint32
	Format uint32
	Data   []byte
}

// Update replaces a rectangle of the frame buffer.
type Update struct {
	X      int32
	Y      int32
	W      int32
	H      int32
	Stride uint32
	Format uint32
	Data   []byte
}

// ScanoutDMABUF switches the frame buffer to a DMA-BUF. The event owns FD and
// the consumer must close it.
type ScanoutDMABUF struct {
	FD       *channel.Handle
	Width    uint32
	Height   uint32
	Stride   uint32
	Fourcc   uint32
	Modifier uint64
	Y0Top    bool
}

// UpdateDMABUF signals a damaged rectangle of the current DMA-BUF. The peer
// is blocked until the consumer calls Ack.Done.
type UpdateDMABUF struct {
	X   int32
	Y   int32
	W   int32
	H   int32
	Ack *bridge.Ack
}

// ScanoutMap switches the frame buffer to shared memory. The event owns
// Memory and the consumer must close it.
type ScanoutMap struct {
	Memory *channel.Handle
	Offset uint32
	Width  uint32
	Height uint32
	Stride uint32
	Format uint32
}

// UpdateMap signals a damaged rectangle of the shared memory. The peer is
// blocked until the consumer calls Ack.Done.
type UpdateMap struct {
	X   int32
	Y   int32
	W   int32
	H   int32
	Ack *bridge.Ack
}

// MouseSet moves the guest cursor.
type MouseSet struct {
	X  int32
	Y  int32
	On int32
}

// CursorDefine sets the guest cursor image.
type CursorDefine struct {
	Width  int32
	Height int32
	HotX   int32
	HotY   int32
	Data   []byte
}

// Disable signals that the console has no output anymore.
type Disable struct{}

func (Scanout) consoleEvent()       {}
func (Update) consoleEvent()        {}
func (ScanoutDMABUF) consoleEvent() {}
func (UpdateDMABUF) consoleEvent()  {}
func (ScanoutMap) consoleEvent()    {}
func (UpdateMap) consoleEvent()     {}
func (MouseSet) consoleEvent()      {}
func (CursorDefine) consoleEvent()  {}
func (Disable) consoleEvent()       {}

// Console dispatches calls of the org.qemu.Display1.Listener interface and its
// Unix.Map extension.
type Console struct {
	base[ConsoleEvent]

	// AckTimeout limits the time to wait for update acknowledgments. If it
	// is exceeded, serving ends with [ErrAckTimeout]. Zero waits forever.
	AckTimeout time.Duration
}

var _ Dispatcher = (*Console)(nil)

// NewConsole creates a new [Console] dispatcher pushing into queue.
func NewConsole(queue *bridge.Queue[ConsoleEvent]) *Console {
	return &Console{base: base[ConsoleEvent]{queue: queue}}
}

// Dispatch implements [Dispatcher].
//
//nolint:cyclop,funlen
func (c *Console) Dispatch(ctx context.Context, call *rpc.Call) error {
	var (
		event ConsoleEvent
		ack   *bridge.Ack
		a     = argsOf(call)
	)

	switch call.Member {
	case "Scanout":
		event = Scanout{
			Width:  arg[uint32](a),
			Height: arg[uint32](a),
			Stride: arg[uint32](a),
			Format: arg[uint32](a),
			Data:   arg[[]byte](a),
		}
	case "Update":
		event = Update{
			X:      arg[int32](a),
			Y:      arg[int32](a),
			W:      arg[int32](a),
			H:      arg[int32](a),
			Stride: arg[uint32](a),
			Format: arg[uint32](a),
			Data:   arg[[]byte](a),
		}
	case "ScanoutDMABUF":
		event = ScanoutDMABUF{
			FD:       arg[*channel.Handle](a),
			Width:    arg[uint32](a),
			Height:   arg[uint32](a),
			Stride:   arg[uint32](a),
			Fourcc:   arg[uint32](a),
			Modifier: arg[uint64](a),
			Y0Top:    arg[bool](a),
		}
	case "UpdateDMABUF":
		ack = bridge.NewAck()
		event = UpdateDMABUF{
			X:   arg[int32](a),
			Y:   arg[int32](a),
			W:   arg[int32](a),
			H:   arg[int32](a),
			Ack: ack,
		}
	case "ScanoutMap":
		event = ScanoutMap{
			Memory: arg[*channel.Handle](a),
			Offset: arg[uint32](a),
			Width:  arg[uint32](a),
			Height: arg[uint32](a),
			Stride: arg[uint32](a),
			Format: arg[uint32](a),
		}
	case "UpdateMap":
		ack = bridge.NewAck()
		event = UpdateMap{
			X:   arg[int32](a),
			Y:   arg[int32](a),
			W:   arg[int32](a),
			H:   arg[int32](a),
			Ack: ack,
		}
	case "MouseSet":
		event = MouseSet{
			X:  arg[int32](a),
			Y:  arg[int32](a),
			On: arg[int32](a),
		}
	case "CursorDefine":
		event = CursorDefine{
			Width:  arg[int32](a),
			Height: arg[int32](a),
			HotX:   arg[int32](a),
			HotY:   arg[int32](a),
			Data:   arg[[]byte](a),
		}
	case "Disable":
		event = Disable{}
	default:
		violation(call, rpc.ErrUnknownMethod)
		return nil
	}

	if err := a.done(); err != nil {
		closeHandles(call.Args)
		violation(call, err)

		return nil
	}

	if err := c.push(event); err != nil {
		closeHandles(call.Args)
		return fmt.Errorf("push %s: %w", call.Member, err)
	}

	if ack == nil {
		return nil
	}

	return c.waitAck(ctx, call.Member, ack)
}

func (c *Console) waitAck(ctx context.Context, member string, ack *bridge.Ack) error {
	if c.AckTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeoutCause(ctx, c.AckTimeout, ErrAckTimeout)
		defer cancel()
	}

	err := await(ctx, c.queue, ack.Wait)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}

		return fmt.Errorf("wait for %s acknowledgment: %w", member, err)
	}

	return nil
}

func closeHandles(args []any) {
	for _, arg := range args {
		if handle, ok := arg.(*channel.Handle); ok {
			_ = handle.Close()
		}
	}
}
