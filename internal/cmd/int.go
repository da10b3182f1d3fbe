// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrValueOutOfRange = errors.New("value is outside of range")

// LimitedUintValue is a [flag.Value] for unsigned integers within a range.
// A zero Upper means no upper limit.
type LimitedUintValue struct {
	Value *uint32
	Lower uint32
	Upper uint32
}

func (u *LimitedUintValue) String() string {
	if u.Value == nil {
		return "0"
	}

	return strconv.FormatUint(uint64(*u.Value), 10)
}

func (u *LimitedUintValue) Set(s string) error {
	value, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	limited := uint32(value)

	if limited < u.Lower {
		return fmt.Errorf("%d < %d: %w", limited, u.Lower, ErrValueOutOfRange)
	}

	if u.Upper > 0 && limited > u.Upper {
		return fmt.Errorf("%d > %d: %w", limited, u.Upper, ErrValueOutOfRange)
	}

	*u.Value = limited

	return nil
}
