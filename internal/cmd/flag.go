// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"runtime/debug"
	"time"
)

const (
	name = "qemu-display-events"

	ackTimeoutDefault = 5 * time.Second

	usageMessage = `Usage of 'qemu-display-events':
    qemu-display-events [flags...]

Attaches to the D-Bus display of a running QEMU VM and prints the events of
the selected listeners to stdout. QEMU must run with "-display dbus".

	qemu-display-events -console=1 -audio -clipboard

All flags can also be provided via environment variable QEMU_DISPLAY_ARGS:
	QEMU_DISPLAY_ARGS="-debug -audio" qemu-display-events

All flags can also be provided via file ./.qemu-display-args, with one
argument per line.
`
)

type flags struct {
	Address    string
	Console    uint32
	NoConsole  bool
	Audio      bool
	Clipboard  bool
	USB        bool
	AckTimeout time.Duration
	Debug      bool
	Version    bool

	flagSet *flag.FlagSet
}

func parseArgs(args []string, output io.Writer) (*flags, error) {
	flags := &flags{
		AckTimeout: ackTimeoutDefault,
	}

	flags.initFlagset(output)

	err := flags.flagSet.Parse(args)
	if err != nil {
		return nil, &ParseArgsError{msg: "flag parse", err: err}
	}

	if len(flags.flagSet.Args()) > 0 {
		return nil, flags.fail("unexpected positional arguments", nil)
	}

	if !flags.Version && flags.NoConsole && !flags.Audio && !flags.Clipboard && !flags.USB {
		return nil, flags.fail("no listener selected", ErrNothingToAttach)
	}

	flags.flagSet = nil

	return flags, nil
}

func (f *flags) initFlagset(output io.Writer) {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = f.usage

	flagSet.StringVar(
		&f.Address,
		"address",
		f.Address,
		"D-Bus address of the display server's bus (default session bus)",
	)

	flagSet.Var(
		&LimitedUintValue{Value: &f.Console},
		"console",
		"index of the console to attach to",
	)

	flagSet.BoolVar(
		&f.NoConsole,
		"noConsole",
		f.NoConsole,
		"do not attach to a console",
	)

	flagSet.BoolVar(
		&f.Audio,
		"audio",
		f.Audio,
		"attach to audio playback and recording",
	)

	flagSet.BoolVar(
		&f.Clipboard,
		"clipboard",
		f.Clipboard,
		"attach to the clipboard",
	)

	flagSet.BoolVar(
		&f.USB,
		"usb",
		f.USB,
		"print the number of free USB redirection channels",
	)

	flagSet.DurationVar(
		&f.AckTimeout,
		"ackTimeout",
		f.AckTimeout,
		"maximum time a console update may stay unacknowledged (0 waits forever)",
	)

	flagSet.BoolVar(
		&f.Debug,
		"debug",
		f.Debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&f.Version,
		"version",
		f.Version,
		"show version and exit",
	)

	f.flagSet = flagSet
}

// fail fails like flag does. It prints the error first and then usage.
func (f *flags) fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) usage() {
	fmt.Fprint(f.flagSet.Output(), usageMessage)
	fmt.Fprintln(f.flagSet.Output(), "\nFlags:")
	f.flagSet.PrintDefaults()
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}
