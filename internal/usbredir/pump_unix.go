// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package usbredir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aibor/qemu-display/internal/channel"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

const readBufferSize = 64 * 1024

// pump moves data between the stream to the peer and the device processor.
type pump struct {
	key   Key
	proc  Processor
	state atomic.Int32
	quit  atomic.Bool

	// fdMu guards the descriptors against being closed while stop uses
	// them.
	fdMu     sync.Mutex
	stream   int
	wakeR    int
	wakeW    int
	fdClosed bool

	cancel   context.CancelFunc
	group    *errgroup.Group
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

// startPump starts bridging between the retained stream end and proc. It
// takes ownership of proc on success only. local is always closed. onEnd is
// called after both loops ended and all resources are released.
func startPump(key Key, local *channel.Handle, proc Processor, onEnd func(*pump)) (*pump, error) {
	stream, err := rawDup(local)
	_ = local.Close()

	if err != nil {
		return nil, err
	}

	var wake [2]int

	err = unix.Pipe2(wake[:], unix.O_CLOEXEC|unix.O_NONBLOCK)
	if err != nil {
		_ = unix.Close(stream)
		return nil, fmt.Errorf("wake pipe: %w", err)
	}

	p := &pump{
		key:    key,
		proc:   proc,
		stream: stream,
		wakeR:  wake[0],
		wakeW:  wake[1],
		done:   make(chan struct{}),
	}
	p.state.Store(int32(Bridging))

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.group, ctx = errgroup.WithContext(ctx)

	p.group.Go(func() error {
		defer p.wake()
		return p.readLoop()
	})
	p.group.Go(func() error {
		defer p.wake()
		return p.writeLoop(ctx)
	})

	go p.supervise(onEnd)

	return p, nil
}

func rawDup(handle *channel.Handle) (int, error) {
	var (
		fd     int
		dupErr error
	)

	err := handle.Control(func(raw uintptr) {
		fd, dupErr = unix.FcntlInt(raw, unix.F_DUPFD_CLOEXEC, 0)
	})
	if err != nil {
		return -1, fmt.Errorf("dup stream: %w", err)
	}

	if dupErr != nil {
		return -1, fmt.Errorf("dup stream: %w", dupErr)
	}

	return fd, nil
}

func (p *pump) State() State {
	return State(p.state.Load())
}

func (p *pump) supervise(onEnd func(*pump)) {
	err := p.group.Wait()
	p.cancel()

	if err != nil && !p.quit.Load() {
		slog.Warn("USB redirection ended",
			slog.String("device", p.key.String()),
			slog.Any("error", err),
		)
	}

	if err := p.proc.Close(); err != nil {
		slog.Debug("Close USB device",
			slog.String("device", p.key.String()),
			slog.Any("error", err),
		)
	}

	p.closeFDs()
	p.err = err
	p.state.Store(int32(Idle))
	close(p.done)

	if onEnd != nil {
		onEnd(p)
	}
}

// stop shuts both loops down and waits until the pump is idle.
func (p *pump) stop() {
	p.stopOnce.Do(func() {
		p.quit.Store(true)
		p.state.CompareAndSwap(int32(Bridging), int32(ShuttingDown))

		p.fdMu.Lock()
		if !p.fdClosed {
			_, _ = unix.Write(p.wakeW, []byte{0})
			_ = unix.Shutdown(p.stream, unix.SHUT_RDWR)
		}
		p.fdMu.Unlock()

		p.cancel()
	})

	<-p.done
}

// wake interrupts a loop blocked in poll.
func (p *pump) wake() {
	p.fdMu.Lock()
	defer p.fdMu.Unlock()

	if !p.fdClosed {
		_, _ = unix.Write(p.wakeW, []byte{0})
	}
}

func (p *pump) closeFDs() {
	p.fdMu.Lock()
	defer p.fdMu.Unlock()

	p.fdClosed = true

	_ = unix.Close(p.stream)
	_ = unix.Close(p.wakeR)
	_ = unix.Close(p.wakeW)
}

// readLoop feeds data from the peer to the device.
func (p *pump) readLoop() error {
	buf := make([]byte, readBufferSize)

	for !p.quit.Load() {
		err := p.poll(unix.POLLIN)
		if err != nil {
			return err
		}

		n, err := unix.Read(p.stream, buf)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return fmt.Errorf("read stream: %w", err)
		case n == 0:
			return ErrPeerClosed
		}

		err = p.proc.Feed(buf[:n])
		if err != nil {
			return fmt.Errorf("feed device: %w", err)
		}
	}

	return errShutdown
}

// writeLoop sends data from the device to the peer.
func (p *pump) writeLoop(ctx context.Context) error {
	for !p.quit.Load() {
		data, err := p.proc.Drain(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return errShutdown
			}

			return fmt.Errorf("drain device: %w", err)
		}

		err = p.writeAll(data)
		if err != nil {
			return err
		}
	}

	return errShutdown
}

func (p *pump) writeAll(data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(p.stream, data)
		switch {
		case errors.Is(err, unix.EAGAIN):
			err = p.poll(unix.POLLOUT)
			if err != nil {
				return err
			}

			continue
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EPIPE):
			return ErrPeerClosed
		case err != nil:
			return fmt.Errorf("write stream: %w", err)
		}

		data = data[n:]
	}

	return nil
}

// poll waits until the stream is ready for the given events or the wake pipe
// is written. Hang ups are reported as ready, so the following read returns
// the remaining data and then EOF.
func (p *pump) poll(events int16) error {
	fds := []unix.PollFd{
		{Fd: int32(p.stream), Events: events},
		{Fd: int32(p.wakeR), Events: unix.POLLIN},
	}

	for {
		_, err := unix.Poll(fds, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}

		if fds[1].Revents != 0 || p.quit.Load() {
			return errShutdown
		}

		if fds[0].Revents&unix.POLLNVAL != 0 {
			return fmt.Errorf("poll: %w", unix.EBADF)
		}

		if fds[0].Revents != 0 {
			return nil
		}
	}
}
