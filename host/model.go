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

// Package host implements the host registry and selection policy described
// in spec.md §4.1: an ordered pool of upstream endpoints with per-host
// cooldown state, and a pluggable policy (round-robin by default) that
// picks the next address to hand a connecting client.
package host

import (
	"net"
	"sync"
	"time"
)

// Host is one upstream endpoint and its failure/cooldown state. All
// mutation happens through Registry.ReportError / ReportSuccess; callers
// only ever observe a Host via the Registry.
type Host struct {
	mu sync.Mutex

	addr *net.TCPAddr

	health           Health
	cooldownUntil    time.Time
	consecutiveError uint
}

// Addr returns the host's resolved TCP address. The returned value is
// immutable for the process lifetime.
func (h *Host) Addr() *net.TCPAddr {
	return h.addr
}

func (h *Host) String() string {
	return h.addr.String()
}

// snapshot is an immutable, lock-free view of a Host at one instant, used
// by the selection policy to scan without holding every host's lock for
// the duration of the scan.
type snapshot struct {
	index         int
	addr          *net.TCPAddr
	health        Health
	cooldownUntil time.Time
}

func (h *Host) snapshot(idx int, now time.Time) snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Invariant (spec.md §3): health = cooling iff cooldownUntil > now.
	// Re-observed lazily here rather than on a timer.
	if h.health == Cooling && !h.cooldownUntil.After(now) {
		// Only the health flag clears on natural expiry; consecutiveError is
		// only reset by an explicit ReportSuccess (spec.md §4.1 invariant 3),
		// so a flapping host's backoff keeps escalating across expiries.
		h.health = Healthy
	}

	return snapshot{index: idx, addr: h.addr, health: h.health, cooldownUntil: h.cooldownUntil}
}
