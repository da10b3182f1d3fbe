// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session attaches listeners to services of the display server.
//
// An [Establisher] creates the channel a listener is served on. For services
// with a private channel, it creates a local stream pair, hands one end to the
// service with the registration call and hosts the listener on the other end.
// For services on the shared bus, it exports the listener object and calls
// the registration method.
//
// A [Session] drives the lifecycle of a listener for one service. Each attach
// creates a fresh channel and a fresh event queue. Teardown, whether requested
// by [Session.Detach] or caused by the peer, runs exactly once per
// attachment and always emits exactly one disconnect event before the queue
// is sealed.
package session
