// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !unix

package usbredir

import (
	"errors"

	"github.com/aibor/qemu-display/internal/channel"
)

type pump struct{}

func startPump(_ Key, local *channel.Handle, _ Processor, _ func(*pump)) (*pump, error) {
	_ = local.Close()

	return nil, errors.ErrUnsupported
}

func (*pump) State() State {
	return Idle
}

func (*pump) stop() {}
