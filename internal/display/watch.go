// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/aibor/qemu-display/internal/rpc"
)

// ObjectChange is a change of the display server's objects.
type ObjectChange struct {
	Path       string
	Interfaces []string
	// Removed is true if the interfaces were removed.
	Removed bool
}

// Watch subscribes to changes of the server's objects. Changes are applied to
// the Display before they are sent. The returned channel is closed once ctx
// is done or the bus is gone.
func (d *Display) Watch(ctx context.Context) (<-chan ObjectChange, error) {
	ctx, cancel := context.WithCancel(ctx)

	added, err := d.bus.Watch(ctx, rootObject, "InterfacesAdded")
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch added objects: %w", err)
	}

	removed, err := d.bus.Watch(ctx, rootObject, "InterfacesRemoved")
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch removed objects: %w", err)
	}

	changes := make(chan ObjectChange)

	go func() {
		defer close(changes)
		defer cancel()

		for added != nil || removed != nil {
			var (
				change ObjectChange
				err    error
			)

			select {
			case sig, ok := <-added:
				if !ok {
					added = nil
					continue
				}

				change, err = parseAdded(sig)
			case sig, ok := <-removed:
				if !ok {
					removed = nil
					continue
				}

				change, err = parseRemoved(sig)
			}

			if err != nil {
				slog.Warn("Drop object signal", slog.Any("error", err))
				continue
			}

			d.apply(change)

			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, nil
}

func (d *Display) apply(change ObjectChange) {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.objects[change.Path]

	if !change.Removed {
		for _, iface := range change.Interfaces {
			if !slices.Contains(current, iface) {
				current = append(current, iface)
			}
		}

		d.objects[change.Path] = current

		return
	}

	current = slices.DeleteFunc(current, func(iface string) bool {
		return slices.Contains(change.Interfaces, iface)
	})

	if len(current) == 0 {
		delete(d.objects, change.Path)
	} else {
		d.objects[change.Path] = current
	}
}

func parseAdded(sig rpc.Signal) (ObjectChange, error) {
	if len(sig.Body) != 2 {
		return ObjectChange{}, fmt.Errorf("%s: %w", sig.Member, ErrUnexpectedSignal)
	}

	path, ok := sig.Body[0].(string)
	if !ok {
		return ObjectChange{}, fmt.Errorf("%s: path: %w", sig.Member, ErrUnexpectedSignal)
	}

	ifaces, ok := sig.Body[1].(map[string]map[string]any)
	if !ok {
		return ObjectChange{}, fmt.Errorf("%s: interfaces: %w", sig.Member, ErrUnexpectedSignal)
	}

	return ObjectChange{
		Path:       path,
		Interfaces: slices.Sorted(maps.Keys(ifaces)),
	}, nil
}

func parseRemoved(sig rpc.Signal) (ObjectChange, error) {
	if len(sig.Body) != 2 {
		return ObjectChange{}, fmt.Errorf("%s: %w", sig.Member, ErrUnexpectedSignal)
	}

	path, ok := sig.Body[0].(string)
	if !ok {
		return ObjectChange{}, fmt.Errorf("%s: path: %w", sig.Member, ErrUnexpectedSignal)
	}

	ifaces, ok := sig.Body[1].([]string)
	if !ok {
		return ObjectChange{}, fmt.Errorf("%s: interfaces: %w", sig.Member, ErrUnexpectedSignal)
	}

	return ObjectChange{
		Path:       path,
		Interfaces: ifaces,
		Removed:    true,
	}, nil
}
