// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build unix

package channel

// DefaultPasser returns the [Passer] for the current platform. The peer process
// ID is not needed on POSIX systems.
func DefaultPasser(_ uint32) Passer {
	return FDPasser{}
}
