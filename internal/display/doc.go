// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package display provides typed access to the org.qemu.Display1 objects of a
// running VM: consoles with their keyboard and mouse, audio, clipboard,
// chardevs and the VM itself.
//
// Listener registrations are returned as [session.Session] values, so callers
// decide when to attach and detach.
package display
