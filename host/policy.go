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
	"sync"
	"time"
)

// roundRobin implements Policy per spec.md §4.1: scan at most N positions
// starting at cursor+1, return the first healthy host and advance the
// cursor to it; if none are healthy, return the one whose cooldown
// expires soonest, tie-broken by lowest index.
type roundRobin struct {
	mu     sync.Mutex
	cursor int
}

// NewRoundRobin returns the reference selection policy.
func NewRoundRobin() Policy {
	return &roundRobin{cursor: -1}
}

func (p *roundRobin) Select(hosts []snapshot, now time.Time) int {
	n := len(hosts)

	p.mu.Lock()
	start := p.cursor
	p.mu.Unlock()

	best := -1
	for i := 1; i <= n; i++ {
		idx := (start + i) % n
		if hosts[idx].health == Healthy {
			best = idx
			break
		}
	}

	if best < 0 {
		// All cooling: pick the one whose cooldown expires soonest,
		// tie-break by lowest index (hosts is already index order).
		best = 0
		for i := 1; i < n; i++ {
			if hosts[i].cooldownUntil.Before(hosts[best].cooldownUntil) {
				best = i
			}
		}
	}

	p.mu.Lock()
	p.cursor = best
	p.mu.Unlock()

	return best
}
