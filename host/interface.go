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

package host

import (
	"net"
	"time"
)

// Registry is the shared, concurrency-safe pool of upstream hosts
// described in spec.md §4.1. Every Worker holds a reference to the same
// Registry; report_error/report_success effects are visible to all of
// them on their next call.
type Registry interface {
	// NextHost returns an address for a new connection attempt. Never
	// blocks, never returns an error once constructed (a Registry is
	// always non-empty; see NewRegistry).
	NextHost() *net.TCPAddr

	// ReportError records that the last attempt to addr failed during
	// connect or forwarding.
	ReportError(addr *net.TCPAddr)

	// ReportSuccess clears cooldown state for addr.
	ReportSuccess(addr *net.TCPAddr)

	// IsOnCooldown is a pure observation of addr's current state.
	IsOnCooldown(addr *net.TCPAddr) bool

	// ConsecutiveErrors is a pure observation, used by tests and metrics.
	ConsecutiveErrors(addr *net.TCPAddr) uint

	// Len returns the number of hosts in the registry.
	Len() int
}

// Policy selects the next snapshot to use out of a set of host
// snapshots taken at a single instant. Pluggable per spec.md §2 (C2);
// RoundRobin is the only implementation shipped, matching spec.md's
// explicit scope.
type Policy interface {
	// Select returns the index into hosts chosen for the next attempt,
	// and advances any internal cursor. hosts is never empty.
	Select(hosts []snapshot, now time.Time) int
}
