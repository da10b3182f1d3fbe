// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build windows

package channel

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modws2_32               = windows.NewLazySystemDLL("ws2_32.dll")
	procWSADuplicateSocketW = modws2_32.NewProc("WSADuplicateSocketW")
)

// DefaultPasser returns the [Passer] for the current platform. Sockets are
// duplicated into the process with the given ID.
func DefaultPasser(peerPID uint32) Passer {
	return SocketPasser{PeerPID: peerPID}
}

// SocketPasser passes the remote end as WSAPROTOCOL_INFOW bytes of a socket
// duplicated into the peer process.
type SocketPasser struct {
	PeerPID uint32
}

// Prepare implements [Passer].
func (p SocketPasser) Prepare(remote *Handle) (*Transfer, error) {
	if p.PeerPID == 0 {
		return nil, &Error{Op: "duplicate socket", Err: ErrPeerPIDMissing}
	}

	var (
		info    []byte
		infoErr error
	)

	err := remote.Control(func(fd uintptr) {
		info, infoErr = duplicateSocket(fd, p.PeerPID)
	})
	if err != nil {
		return nil, &Error{Op: "duplicate socket", Err: err}
	}

	if infoErr != nil {
		return nil, &Error{Op: "duplicate socket", Err: infoErr}
	}

	return &Transfer{Value: info}, nil
}

func duplicateSocket(socket uintptr, pid uint32) ([]byte, error) {
	var info windows.WSAProtocolInfo

	ret, _, err := procWSADuplicateSocketW.Call(
		socket,
		uintptr(pid),
		uintptr(unsafe.Pointer(&info)),
	)
	if int32(ret) != 0 {
		return nil, err
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&info)), unsafe.Sizeof(info))

	return bytes.Clone(raw), nil
}
