// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package dbusrpc

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

const maxAuthLines = 16

// authenticate runs the server side of the D-Bus authentication protocol on a
// private channel. The peer is the other end of a stream pair created by us,
// so EXTERNAL and ANONYMOUS are accepted without checking credentials.
//
// It returns whether the peer negotiated descriptor passing.
func authenticate(r *bufio.Reader, w io.Writer, unixFD bool) (bool, error) {
	nul, err := r.ReadByte()
	if err != nil {
		return false, fmt.Errorf("%w: read nul byte: %w", ErrAuth, err)
	}

	if nul != 0 {
		return false, fmt.Errorf("%w: missing nul byte", ErrAuth)
	}

	guid, err := newGUID()
	if err != nil {
		return false, err
	}

	var (
		authenticated bool
		negotiated    bool
	)

	for range maxAuthLines {
		line, err := r.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("%w: read: %w", ErrAuth, err)
		}

		cmd, arg, _ := strings.Cut(strings.TrimRight(line, "\r\n"), " ")

		var response string

		switch {
		case cmd == "AUTH" && !authenticated:
			response = authResponse(arg, guid, &authenticated)
		case cmd == "DATA" && !authenticated:
			authenticated = true
			response = "OK " + guid
		case cmd == "NEGOTIATE_UNIX_FD" && authenticated:
			if unixFD {
				negotiated = true
				response = "AGREE_UNIX_FD"
			} else {
				response = "ERROR descriptor passing not supported"
			}
		case cmd == "BEGIN" && authenticated:
			return negotiated, nil
		case cmd == "CANCEL", cmd == "ERROR":
			authenticated = false
			response = "REJECTED EXTERNAL ANONYMOUS"
		default:
			response = "ERROR unexpected " + cmd
		}

		_, err = io.WriteString(w, response+"\r\n")
		if err != nil {
			return false, fmt.Errorf("%w: write: %w", ErrAuth, err)
		}
	}

	return false, fmt.Errorf("%w: too many lines", ErrAuth)
}

func authResponse(arg, guid string, authenticated *bool) string {
	mechanism, _, hasInitial := strings.Cut(arg, " ")

	switch {
	case mechanism == "EXTERNAL" && !hasInitial:
		return "DATA"
	case mechanism == "EXTERNAL", mechanism == "ANONYMOUS":
		*authenticated = true
		return "OK " + guid
	default:
		return "REJECTED EXTERNAL ANONYMOUS"
	}
}

func newGUID() (string, error) {
	var guid [16]byte

	_, err := rand.Read(guid[:])
	if err != nil {
		return "", fmt.Errorf("generate guid: %w", err)
	}

	return hex.EncodeToString(guid[:]), nil
}
