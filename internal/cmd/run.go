// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aibor/qemu-display/internal/channel"
	"github.com/aibor/qemu-display/internal/dbusrpc"
	"github.com/aibor/qemu-display/internal/display"
	"github.com/aibor/qemu-display/internal/rpc"
	"github.com/aibor/qemu-display/internal/usbredir"
	"golang.org/x/sync/errgroup"
)

const localConfigFile = ".qemu-display-args"

// IO provides input and output details for the command.
type IO struct {
	Stdout io.Writer
	Stderr io.Writer
}

func newFlags(args []string, cfg IO) (*flags, error) {
	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return nil, err
	}

	flags, err := parseArgs(args, cfg.Stderr)
	if err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	return flags, nil
}

func newDisplay(ctx context.Context, bus rpc.Bus) (*display.Display, error) {
	// The peer's PID is only needed where sockets are passed by duplication.
	pid, err := display.PeerPID(ctx, bus)
	if err != nil {
		slog.Debug("No peer pid", slog.Any("error", err))
	}

	d, err := display.New(ctx, bus, channel.DefaultPasser(pid))
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}

	return d, nil
}

func logVM(ctx context.Context, d *display.Display, log *slog.Logger) {
	vm, err := d.VM()
	if err != nil {
		slog.Debug("No VM object", slog.Any("error", err))
		return
	}

	vmName, err := vm.Name(ctx)
	if err != nil {
		slog.Warn("Failed to read VM name", slog.Any("error", err))
		return
	}

	log.Info("VM",
		slog.String("name", vmName),
		slog.Any("consoles", d.Consoles()),
	)
}

func attach(
	ctx context.Context,
	group *errgroup.Group,
	flags *flags,
	d *display.Display,
	events eventLogger,
) error {
	if !flags.NoConsole {
		console, err := d.Console(flags.Console)
		if err != nil {
			return err //nolint:wrapcheck
		}

		group.Go(func() error {
			return consume(ctx, console.Listener(flags.AckTimeout), events.console)
		})
	}

	if flags.Audio {
		audio, err := d.Audio()
		if err != nil {
			return err //nolint:wrapcheck
		}

		group.Go(func() error {
			return consume(ctx, audio.OutListener(), events.audio)
		})

		group.Go(func() error {
			return consume(ctx, audio.InListener(), events.audio)
		})
	}

	if flags.Clipboard {
		clipboard, err := d.Clipboard()
		if err != nil {
			return err //nolint:wrapcheck
		}

		group.Go(func() error {
			return consume(ctx, clipboard.Listener(), events.clipboard)
		})
	}

	return nil
}

func watchUSB(ctx context.Context, d *display.Display, events eventLogger) error {
	system, err := dbusrpc.System()
	if err != nil {
		return err //nolint:wrapcheck
	}

	defer system.Close()

	manager := d.UsbRedir(ctx, usbredir.SystemHelper{Bus: system})
	defer manager.Close()

	events.log.Info("USB redirection",
		slog.Int("free_channels", manager.FreeChannels(ctx)),
	)

	for nfree := range manager.WatchFreeChannels(ctx) {
		events.log.Info("USB redirection", slog.Int("free_channels", nfree))
	}

	return nil
}

// watchObjects logs changes of the display objects until ctx is done. The
// returned channel is closed once it stopped.
func watchObjects(ctx context.Context, d *display.Display) <-chan struct{} {
	stopped := make(chan struct{})

	changes, err := d.Watch(ctx)
	if err != nil {
		slog.Warn("Failed to watch display objects", slog.Any("error", err))
		close(stopped)

		return stopped
	}

	go func() {
		defer close(stopped)

		for change := range changes {
			slog.Debug("Display objects changed",
				slog.String("path", change.Path),
				slog.Any("interfaces", change.Interfaces),
				slog.Bool("removed", change.Removed),
			)
		}
	}()

	return stopped
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	bus, err := dbusrpc.Dial(flags.Address)
	if err != nil {
		return fmt.Errorf("bus: %w", err)
	}

	defer bus.Close()

	d, err := newDisplay(ctx, bus)
	if err != nil {
		return err
	}

	events := eventLogger{log: newEventLogger(cfg.Stdout)}

	logVM(ctx, d, events.log)

	watchCtx, stopWatch := context.WithCancel(ctx)
	watchStopped := watchObjects(watchCtx, d)

	defer func() {
		stopWatch()
		<-watchStopped
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	err = attach(ctx, group, flags, d, events)
	if err != nil {
		// Stop the listeners attached already.
		cancel()

		return errors.Join(err, group.Wait())
	}

	if flags.USB {
		group.Go(func() error {
			return watchUSB(ctx, d, events)
		})
	}

	return group.Wait() //nolint:wrapcheck
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func handleRunError(err error) int {
	if errors.Is(err, context.Canceled) {
		return 0
	}

	if errors.Is(err, display.ErrNotFound) {
		slog.Warn("Is QEMU running with -display dbus and the requested devices?")
	}

	slog.Error(err.Error())

	return -1
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	flags, err := newFlags(args, cfg)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.Debug)

	if flags.Version {
		buildInfo, err := getBuildInfo()
		if err != nil {
			slog.Error(err.Error())
			return -1
		}

		fmt.Fprintf(cfg.Stdout, "Version: %s\n", buildInfo.Main.Version)

		return 0
	}

	err = run(ctx, flags, cfg)
	if err != nil {
		return handleRunError(err)
	}

	return 0
}
