/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package conn implements the paired connection described in spec.md §4.3:
// one client socket plus at most one upstream socket, stepped through its
// state machine one readiness event at a time by a single owning worker.
package conn

// State is a Pair's position in the lifecycle state machine of spec.md
// §4.3.
type State uint8

const (
	// Fresh: accepted, not yet registered with a poller.
	Fresh State = iota
	// Idle: registered, no upstream chosen.
	Idle
	// Connecting: a non-blocking connect is in flight.
	Connecting
	// Established: both sockets registered, forwarding in progress.
	Established
	// Dead: both sockets shut down, pending removal from the worker.
	Dead
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Established:
		return "established"
	case Dead:
		return "dead"
	default:
		return "unknown"
	}
}
