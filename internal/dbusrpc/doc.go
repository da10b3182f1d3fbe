// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package dbusrpc implements [rpc.Bus] on D-Bus.
//
// Calls, properties, object discovery, signals and exported objects use a
// shared bus connection. Listeners on private channels are served by a
// peer-to-peer server that authenticates the peer itself and decodes incoming
// messages in arrival order. On Unix, descriptors sent by the peer are
// received with the messages.
package dbusrpc
