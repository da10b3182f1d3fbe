// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd provides the CLI entry point for qemu-display-events. It
// handles flag parsing, attaches the requested listeners and logs their
// events.
package cmd
