// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package listener implements the listener objects the display server calls
// into.
//
// [Serve] takes the incoming calls of a hosted object one by one and hands
// them to a [Dispatcher]. The dispatcher decodes the call, pushes the
// resulting event into a [bridge.Queue] and answers the call. Since calls are
// dispatched sequentially, a call waiting for the consumer, like a DMA-BUF
// update waiting for its acknowledgment, holds back all following calls of
// the same listener.
//
// Calls that do not match the protocol are logged and answered with an
// error. They do not end the session.
//
// When serving ends, for whatever reason, every dispatcher pushes exactly one
// [Disconnected] event.
package listener
