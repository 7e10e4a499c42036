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

package worker

import "time"

// Interest is a bitmask of readiness a Poller should watch a descriptor
// for.
type Interest uint8

const (
	// Readable requests notification when fd has data to read (or EOF).
	Readable Interest = 1 << iota
	// Writable requests notification when fd can accept a write (also
	// used to detect non-blocking connect completion).
	Writable
)

// Event reports one descriptor's readiness, resolved back to the PairID
// it was registered under (spec.md §4.5).
type Event struct {
	ID PairID
	// FD distinguishes which of a pair's two descriptors fired, since
	// both the client and upstream fd are registered under the same
	// PairID.
	FD       int
	Readable bool
	Writable bool
	// Err is set when the poller itself reported an error condition on
	// the descriptor (e.g. EPOLLERR/EPOLLHUP), distinct from an
	// ordinary EOF discovered by a subsequent read.
	Err bool
}

// Poller is the worker-owned readiness multiplexer of spec.md §4.6:
// epoll on Linux, kqueue on BSD/Darwin, no portable fallback.
type Poller interface {
	// Register starts watching fd for the given interest, associated
	// with id.
	Register(fd int, id PairID, interest Interest) error
	// Modify changes the interest set for an already-registered fd.
	Modify(fd int, id PairID, interest Interest) error
	// Deregister stops watching fd. Safe to call on an fd that was
	// never registered.
	Deregister(fd int) error
	// Wait blocks up to timeout for readiness events, returning
	// immediately if any are already pending. A zero-length result
	// with a nil error means the bounded poll interval elapsed with
	// nothing ready (spec.md §4.5's "bounded poll").
	Wait(timeout time.Duration) ([]Event, error)
	// Close releases the underlying kernel object.
	Close() error
}
