// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bridge

import "errors"

var (
	// ErrConsumerGone is returned by [Queue.Push] once the consumer closed
	// the queue.
	ErrConsumerGone = errors.New("consumer gone")

	// ErrSealed is returned by [Queue.Push] once the producer sealed the
	// queue.
	ErrSealed = errors.New("queue sealed")
)
