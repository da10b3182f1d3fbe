// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bridge moves events from listener goroutines to the consumer.
//
// The consumer is usually a single-threaded event loop. Listeners push events
// into a [Queue] without blocking and the consumer drains it whenever
// [Queue.Ready] fires. Events that need an answer from the consumer carry a
// one-shot [Ack] or [Reply]. The listener waits for the answer while the
// consumer handles the event in its own time.
package bridge
