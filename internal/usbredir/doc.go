// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package usbredir redirects local USB devices into the guest.
//
// The display server exposes a number of USB redirection chardevs. Each local
// device is bridged to a free chardev: a local stream pair is created, one end
// is registered with the chardev and the redirection protocol engine of the
// device ([Processor]) is pumped on the other end by two loops. One waits for
// the stream to become readable and feeds the engine, the other one drains
// the engine and writes to the stream.
//
// The [Manager] keeps at most one bridge per device and broadcasts the
// number of free chardevs to watchers on every change.
package usbredir
