// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package rpc

import (
	"slices"
	"strings"
)

// Object addresses an interface of an object on the bus.
type Object struct {
	// Destination is the well known or unique bus name of the owner. It is
	// empty on peer-to-peer channels.
	Destination string
	Path        string
	Interface   string

	// Extensions lists further interfaces a hosted object implements next to
	// Interface. Peers discover them by reading the Interfaces property.
	Extensions []string
}

// Implements returns whether the object serves calls of the given interface.
func (o Object) Implements(iface string) bool {
	return iface == o.Interface || slices.Contains(o.Extensions, iface)
}

// Method returns the fully qualified name of the given method of the
// interface.
func (o Object) Method(name string) string {
	return o.Interface + "." + name
}

// WithInterface returns a copy of the Object addressing another interface of
// the same object. Extensions are not carried over.
func (o Object) WithInterface(iface string) Object {
	o.Interface = iface
	o.Extensions = nil

	return o
}

// Child returns a copy of the Object with the given element appended to the
// path.
func (o Object) Child(element string) Object {
	o.Path = strings.TrimSuffix(o.Path, "/") + "/" + element
	return o
}

func (o Object) String() string {
	if o.Destination == "" {
		return o.Path + ":" + o.Interface
	}

	return o.Destination + o.Path + ":" + o.Interface
}
