// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package rpc defines the primitives needed from the inter-process bus.
//
// The display server exposes its objects on a message bus. Clients call
// methods on those objects and read their properties. Listeners are hosted by
// the client, either on a private peer-to-peer channel or as object on the
// shared bus, and receive method calls from the server. [Bus] names those
// primitives so the session machinery does not depend on a specific bus
// implementation.
//
// Incoming method calls are handed out by a [Server] one at a time, in the
// order the peer sent them. Each [Call] must be answered with
// [Call.Return] or [Call.Fail] exactly once. Additional answers are ignored.
package rpc
