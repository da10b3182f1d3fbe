// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rpctest provides an in-memory [rpc.Bus] for tests.
//
// [Bus] records all outgoing calls, answers property reads from a
// configurable table and hands out a [Peer] for every hosted object. The Peer
// plays the display server: it sends calls to the hosted object in order and
// can close the channel.
package rpctest
