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

// Selection is a clipboard selection.
type Selection uint32

// Clipboard selections.
const (
	SelectionClipboard Selection = iota
	SelectionPrimary
	SelectionSecondary
)

func (s Selection) String() string {
	switch s {
	case SelectionClipboard:
		return "clipboard"
	case SelectionPrimary:
		return "primary"
	case SelectionSecondary:
		return "secondary"
	default:
		return fmt.Sprintf("selection(%d)", uint32(s))
	}
}

// Valid reports whether s is a known selection.
func (s Selection) Valid() bool {
	return s <= SelectionSecondary
}

// ClipboardEvent is an event received by a clipboard listener.
type ClipboardEvent interface {
	clipboardEvent()
}

// ClipboardRegister signals that the peer registered its clipboard.
type ClipboardRegister struct{}

// ClipboardUnregister signals that the peer unregistered its clipboard.
type ClipboardUnregister struct{}

// ClipboardGrab signals that the peer owns the selection now and offers data
// of the given MIME types.
type ClipboardGrab struct {
	Selection Selection
	Serial    uint32
	Mimes     []string
}

// ClipboardRelease signals that the peer released the selection.
type ClipboardRelease struct {
	Selection Selection
}

// ClipboardData is clipboard content of a specific MIME type.
type ClipboardData struct {
	Mime string
	Data []byte
}

// ClipboardRequest asks the consumer for the selection content in one of the
// given MIME types. The consumer must answer Reply.
type ClipboardRequest struct {
	Selection Selection
	Mimes     []string
	Reply     *bridge.Reply[ClipboardData]
}

func (ClipboardRegister) clipboardEvent()   {}
func (ClipboardUnregister) clipboardEvent() {}
func (ClipboardGrab) clipboardEvent()       {}
func (ClipboardRelease) clipboardEvent()    {}
func (ClipboardRequest) clipboardEvent()    {}

// Clipboard dispatches calls of the org.qemu.Display1.Clipboard interface.
//
// Grabs are ordered by their serial per selection. A grab is dropped unless
// its serial is greater than the serial of the last applied grab of the same
// selection. Register and Unregister reset all serials to 0.
type Clipboard struct {
	base[ClipboardEvent]

	serials map[Selection]uint32
}

var _ Dispatcher = (*Clipboard)(nil)

// NewClipboard creates a new [Clipboard] dispatcher pushing into queue.
func NewClipboard(queue *bridge.Queue[ClipboardEvent]) *Clipboard {
	return &Clipboard{
		base:    base[ClipboardEvent]{queue: queue},
		serials: make(map[Selection]uint32),
	}
}

// Dispatch implements [Dispatcher].
//
//nolint:cyclop
func (c *Clipboard) Dispatch(ctx context.Context, call *rpc.Call) error {
	var (
		event ClipboardEvent
		reply *bridge.Reply[ClipboardData]
		a     = argsOf(call)
	)

	switch call.Member {
	case "Register":
		event = ClipboardRegister{}
	case "Unregister":
		event = ClipboardUnregister{}
	case "Grab":
		event = ClipboardGrab{
			Selection: Selection(arg[uint32](a)),
			Serial:    arg[uint32](a),
			Mimes:     arg[[]string](a),
		}
	case "Release":
		event = ClipboardRelease{Selection: Selection(arg[uint32](a))}
	case "Request":
		reply = bridge.NewReply[ClipboardData]()
		event = ClipboardRequest{
			Selection: Selection(arg[uint32](a)),
			Mimes:     arg[[]string](a),
			Reply:     reply,
		}
	default:
		violation(call, rpc.ErrUnknownMethod)
		return nil
	}

	if err := a.done(); err != nil {
		violation(call, err)
		return nil
	}

	if err := validSelection(event); err != nil {
		violation(call, err)
		return nil
	}

	if !c.apply(event) {
		return nil
	}

	if err := c.push(event); err != nil {
		return fmt.Errorf("push %s: %w", call.Member, err)
	}

	if reply == nil {
		return nil
	}

	return c.waitRequest(ctx, call, reply)
}

// apply updates the serial state and reports whether the event is to be
// delivered.
func (c *Clipboard) apply(event ClipboardEvent) bool {
	switch e := event.(type) {
	case ClipboardRegister, ClipboardUnregister:
		clear(c.serials)
	case ClipboardGrab:
		last := c.serials[e.Selection]
		if e.Serial <= last {
			slog.Debug("Outdated clipboard grab dropped",
				slog.String("selection", e.Selection.String()),
				slog.Uint64("serial", uint64(e.Serial)),
				slog.Uint64("last", uint64(last)),
			)

			return false
		}

		c.serials[e.Selection] = e.Serial
	}

	return true
}

func (c *Clipboard) waitRequest(
	ctx context.Context,
	call *rpc.Call,
	reply *bridge.Reply[ClipboardData],
) error {
	var data ClipboardData

	err := await(ctx, c.queue, func(ctx context.Context) error {
		var err error

		data, err = reply.Wait(ctx)

		return err
	})

	switch {
	case err == nil:
		call.Return(data.Mime, data.Data)
		return nil
	case ctx.Err() != nil, errors.Is(err, bridge.ErrConsumerGone):
		return err
	default:
		// The consumer has no data to offer. The peer gets the error.
		slog.Debug("Clipboard request failed", slog.Any("error", err))
		call.Fail(err)

		return nil
	}
}

func validSelection(event ClipboardEvent) error {
	var selection Selection

	switch e := event.(type) {
	case ClipboardGrab:
		selection = e.Selection
	case ClipboardRelease:
		selection = e.Selection
	case ClipboardRequest:
		selection = e.Selection
	default:
		return nil
	}

	if !selection.Valid() {
		return fmt.Errorf("invalid %s", selection)
	}

	return nil
}
