// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package usbredir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aibor/qemu-display/internal/channel"
)

// Manager bridges local devices to the redirection chardevs.
//
// It is safe for concurrent use. Device state changes are serialized.
type Manager struct {
	// OwnerTimeout limits reading the chardev owners after a bridge ended on
	// its own. It must not be changed once the manager is in use.
	OwnerTimeout time.Duration

	chardevs []Chardev
	helper   Helper

	mu     sync.Mutex
	pumps  map[Key]*pump
	closed bool

	watchersMu sync.Mutex
	watchers   map[chan int]struct{}
}

// DefaultOwnerTimeout is the default of [Manager.OwnerTimeout].
const DefaultOwnerTimeout = 5 * time.Second

// NewManager creates a new [Manager] for the given chardevs. helper may be
// nil, if no system helper is available.
func NewManager(chardevs []Chardev, helper Helper) *Manager {
	return &Manager{
		OwnerTimeout: DefaultOwnerTimeout,
		chardevs:     chardevs,
		helper:       helper,
		pumps:        make(map[Key]*pump),
		watchers:     make(map[chan int]struct{}),
	}
}

// SetDeviceState connects the device if connect is true and disconnects it
// otherwise. It returns the requested state on success.
//
// Connecting a connected device and disconnecting a disconnected device are
// no-ops.
func (m *Manager) SetDeviceState(ctx context.Context, dev Device, connect bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false, ErrClosed
	}

	key := dev.Key()
	p, handled := m.pumps[key]

	switch {
	case connect && !handled:
		// The owner properties are not watched, so the count after the
		// change is anticipated.
		nfree := m.freeChannels(ctx)

		p, err := m.connect(ctx, dev)
		if err != nil {
			return false, err
		}

		m.pumps[key] = p
		m.broadcast(nfree - 1)
	case !connect && handled:
		nfree := m.freeChannels(ctx)

		p.stop()
		delete(m.pumps, key)
		m.broadcast(nfree + 1)
	}

	return connect, nil
}

func (m *Manager) connect(ctx context.Context, dev Device) (*pump, error) {
	key := dev.Key()

	chardev, err := m.firstFreeChardev(ctx)
	if err != nil {
		return nil, err
	}

	proc, err := m.open(ctx, dev)
	if err != nil {
		return nil, fmt.Errorf("open device %s: %w", key, err)
	}

	local, remote, err := channel.Pair()
	if err != nil {
		_ = proc.Close()
		return nil, err
	}

	err = chardev.Register(ctx, remote)
	_ = remote.Close()

	if err != nil {
		_ = local.Close()
		_ = proc.Close()

		return nil, fmt.Errorf("register chardev for %s: %w", key, err)
	}

	p, err := startPump(key, local, proc, m.ended)
	if err != nil {
		_ = proc.Close()
		return nil, fmt.Errorf("start bridge for %s: %w", key, err)
	}

	slog.Debug("USB device redirected", slog.String("device", key.String()))

	return p, nil
}

func (m *Manager) open(ctx context.Context, dev Device) (Processor, error) {
	proc, err := dev.Open(ctx)
	if err == nil || !errors.Is(err, ErrAccessDenied) || m.helper == nil {
		return proc, err
	}

	slog.Debug("Device access denied, asking system helper",
		slog.String("device", dev.Key().String()),
	)

	fd, err := m.helper.OpenBusDev(ctx, dev.Key())
	if err != nil {
		return nil, fmt.Errorf("system helper: %w", err)
	}

	proc, err = dev.OpenFD(ctx, fd)
	if err != nil {
		_ = fd.Close()
		return nil, err
	}

	return proc, nil
}

// ended is called by pumps that ended. Pumps that ended on their own are
// removed.
func (m *Manager) ended(p *pump) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pumps[p.key] != p {
		return
	}

	delete(m.pumps, p.key)

	ctx, cancel := context.WithTimeout(context.Background(), m.OwnerTimeout)
	defer cancel()

	m.broadcast(m.freeChannels(ctx))
}

// IsDeviceConnected reports whether the device is bridged.
func (m *Manager) IsDeviceConnected(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, handled := m.pumps[key]

	return handled
}

// DeviceState returns the state of the device bridge.
func (m *Manager) DeviceState(key Key) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, handled := m.pumps[key]
	if !handled {
		return Idle
	}

	return p.State()
}

// FreeChannels returns the number of chardevs without owner.
func (m *Manager) FreeChannels(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.freeChannels(ctx)
}

func (m *Manager) freeChannels(ctx context.Context) int {
	var n int

	for _, chardev := range m.chardevs {
		if m.isFree(ctx, chardev) {
			n++
		}
	}

	return n
}

func (m *Manager) firstFreeChardev(ctx context.Context) (Chardev, error) {
	for _, chardev := range m.chardevs {
		if m.isFree(ctx, chardev) {
			return chardev, nil
		}
	}

	return nil, ErrNoFreeChannel
}

func (*Manager) isFree(ctx context.Context, chardev Chardev) bool {
	owner, err := chardev.Owner(ctx)
	if err != nil {
		slog.Debug("Read chardev owner", slog.Any("error", err))
		return false
	}

	return owner == ""
}

// WatchFreeChannels returns a channel receiving the number of free chardevs
// on every change. Only the latest value is kept for slow receivers. The
// channel is closed once ctx is done or the manager is closed.
func (m *Manager) WatchFreeChannels(ctx context.Context) <-chan int {
	ch := make(chan int, 1)

	m.watchersMu.Lock()
	m.watchers[ch] = struct{}{}
	m.watchersMu.Unlock()

	context.AfterFunc(ctx, func() {
		m.unwatch(ch)
	})

	return ch
}

func (m *Manager) unwatch(ch chan int) {
	m.watchersMu.Lock()
	defer m.watchersMu.Unlock()

	if _, exists := m.watchers[ch]; !exists {
		return
	}

	delete(m.watchers, ch)
	close(ch)
}

func (m *Manager) broadcast(nfree int) {
	m.watchersMu.Lock()
	defer m.watchersMu.Unlock()

	for ch := range m.watchers {
		// Replace an unreceived value.
		select {
		case <-ch:
		default:
		}

		select {
		case ch <- nfree:
		default:
		}
	}
}

// Close disconnects all devices and closes all watcher channels.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	pumps := m.pumps
	m.pumps = make(map[Key]*pump)
	m.mu.Unlock()

	for _, p := range pumps {
		p.stop()
	}

	m.watchersMu.Lock()
	watchers := m.watchers
	m.watchers = make(map[chan int]struct{})
	m.watchersMu.Unlock()

	for ch := range watchers {
		close(ch)
	}
}
