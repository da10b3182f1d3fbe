// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import "github.com/aibor/qemu-display/internal/rpc"

// Transport is the way a listener is connected to its service.
type Transport int

const (
	// Private listeners are served on a private peer-to-peer channel handed
	// to the service.
	Private Transport = iota
	// Shared listeners are exported on the shared bus.
	Shared
)

func (t Transport) String() string {
	if t == Shared {
		return "shared"
	}

	return "private"
}

// Service describes how to attach a listener to a service.
type Service struct {
	// Name is used in logs and errors.
	Name string
	// Object is the service object the registration method is called on.
	Object rpc.Object
	// Register is the registration method. For [Private] services it takes
	// the remote channel end as only argument.
	Register string
	// Unregister is called on detach, if set. Useful for [Shared] services
	// only, as private channels unregister by closing.
	Unregister string
	Transport  Transport
	// Listener is the hosted listener object.
	Listener rpc.Object
}
