// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/aibor/qemu-display/internal/session"
	"github.com/aibor/qemu-display/internal/usbredir"
)

const objectManagerInterface = "org.freedesktop.DBus.ObjectManager"

var rootObject = object(RootPath, objectManagerInterface)

// Display is the display server of a VM.
//
// It knows the objects the server provided when it was created. Use
// [Display.Watch] to keep track of added and removed objects.
type Display struct {
	bus         rpc.Bus
	passer      channel.Passer
	establisher session.Establisher

	mu      sync.RWMutex
	objects map[string][]string
}

// New fetches the objects of the display server on the bus. The passer is
// used for all channels handed to the server.
func New(ctx context.Context, bus rpc.Bus, passer channel.Passer) (*Display, error) {
	objects, err := bus.Objects(ctx, rootObject)
	if err != nil {
		return nil, fmt.Errorf("get display objects: %w", err)
	}

	slog.Debug("Display objects", slog.Int("count", len(objects)))

	return &Display{
		bus:    bus,
		passer: passer,
		establisher: session.Establisher{
			Bus:    bus,
			Passer: passer,
		},
		objects: objects,
	}, nil
}

func (d *Display) has(path, iface string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ifaces, exists := d.objects[path]
	if !exists {
		return false
	}

	// Some servers list objects without interfaces.
	return len(ifaces) == 0 || slices.Contains(ifaces, iface)
}

func (d *Display) paths(prefix string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var paths []string

	for path := range d.objects {
		if rest, found := strings.CutPrefix(path, prefix); found && rest != "" {
			paths = append(paths, rest)
		}
	}

	slices.Sort(paths)

	return paths
}

// Consoles returns the indexes of all known consoles in ascending order.
func (d *Display) Consoles() []uint32 {
	var indexes []uint32

	for _, suffix := range d.paths(consolePrefix) {
		idx, err := strconv.ParseUint(suffix, 10, 32)
		if err != nil {
			continue
		}

		indexes = append(indexes, uint32(idx))
	}

	slices.Sort(indexes)

	return indexes
}

// Console returns the console with the given index.
func (d *Display) Console(idx uint32) (*Console, error) {
	if !d.has(ConsolePath(idx), ConsoleInterface) {
		return nil, fmt.Errorf("console %d: %w", idx, ErrNotFound)
	}

	return newConsole(d, idx), nil
}

// Audio returns the audio backend. It fails with [ErrNotFound] if the VM has
// no D-Bus audio backend.
func (d *Display) Audio() (*Audio, error) {
	if !d.has(audioPath, AudioInterface) {
		return nil, fmt.Errorf("audio: %w", ErrNotFound)
	}

	return &Audio{establisher: d.establisher}, nil
}

// Clipboard returns the clipboard. It fails with [ErrNotFound] if the server
// does not provide one.
func (d *Display) Clipboard() (*Clipboard, error) {
	if !d.has(clipboardPath, ClipboardInterface) {
		return nil, fmt.Errorf("clipboard: %w", ErrNotFound)
	}

	return &Clipboard{
		proxy:       proxy{bus: d.bus, obj: object(clipboardPath, ClipboardInterface)},
		establisher: d.establisher,
	}, nil
}

// Chardevs returns all known chardevs ordered by id.
func (d *Display) Chardevs() []*Chardev {
	ids := d.paths(chardevPrefix)
	chardevs := make([]*Chardev, 0, len(ids))

	for _, id := range ids {
		chardevs = append(chardevs, &Chardev{
			proxy:  proxy{bus: d.bus, obj: object(ChardevPath(id), ChardevInterface)},
			ID:     id,
			passer: d.passer,
		})
	}

	return chardevs
}

// UsbRedir returns a manager for all USB redirection chardevs. Chardevs whose
// name can not be read are skipped.
func (d *Display) UsbRedir(ctx context.Context, helper usbredir.Helper) *usbredir.Manager {
	var chardevs []usbredir.Chardev

	for _, chardev := range d.Chardevs() {
		name, err := chardev.Name(ctx)
		if err != nil {
			slog.Debug("Skip chardev",
				slog.String("id", chardev.ID),
				slog.Any("error", err),
			)

			continue
		}

		if name == usbredirChardevName {
			chardevs = append(chardevs, chardev)
		}
	}

	slog.Debug("USB redirection chardevs", slog.Int("count", len(chardevs)))

	return usbredir.NewManager(chardevs, helper)
}

// VM returns the VM object.
func (d *Display) VM() (*VM, error) {
	if !d.has(vmPath, VMInterface) {
		return nil, fmt.Errorf("vm: %w", ErrNotFound)
	}

	return &VM{proxy{bus: d.bus, obj: object(vmPath, VMInterface)}}, nil
}
