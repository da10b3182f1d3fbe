// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package channel provides owned descriptors for the private control channels
// established with the display server.
//
// A control channel is a connected local stream pair. One end is kept and
// used to host a listener, the other end is handed to the peer by a [Passer].
// How the remote end is encoded for transfer depends on the platform: POSIX
// systems pass a duplicated file descriptor, Windows passes the protocol info
// of a socket duplicated into the peer process.
//
// [Handle] is also used for descriptors received from the peer, like DMA-BUF
// or shared memory scanouts.
package channel
