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

package conn

import (
	"net"
	"time"
)

// BeginConnect starts a non-blocking connect to target and records it as
// the pair's upstream. Any previously open upstream fd is closed first;
// spec.md §4.3 allows only one upstream attempt in flight per pair.
func (p *Pair) BeginConnect(target *net.TCPAddr, timeout time.Duration) error {
	p.mu.Lock()
	if p.upstreamFD >= 0 {
		ShutdownClose(p.upstreamFD)
		p.upstreamFD = -1
	}
	p.mu.Unlock()

	fd, inProgress, err := DialNonblocking(target)
	if err != nil {
		p.mu.Lock()
		p.lastTargetAddr = target
		p.lastTargetErrored = true
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.upstreamFD = fd
	p.targetAddr = target
	p.lastTargetAddr = target
	p.lastTargetErrored = false
	p.connectDeadline = time.Now().Add(timeout)
	if inProgress {
		p.state = Connecting
	} else {
		p.state = Established
	}
	p.mu.Unlock()

	return nil
}

// ConnectOutcome is the result of a readiness-triggered connect check.
type ConnectOutcome uint8

const (
	// ConnectPending: still waiting, caller should keep the pair
	// registered for write-readiness.
	ConnectPending ConnectOutcome = iota
	// ConnectSucceeded: the upstream socket is usable for forwarding.
	ConnectSucceeded
	// ConnectFailed: the attempt failed or the per-attempt deadline
	// passed; the caller should reselect a host.
	ConnectFailed
)

// PollConnect checks an in-flight connect for completion, per spec.md
// §4.3's zero-length-peek detection. now is passed in rather than read
// internally so tests can drive the deadline deterministically.
func (p *Pair) PollConnect(now time.Time) ConnectOutcome {
	p.mu.Lock()
	fd := p.upstreamFD
	deadline := p.connectDeadline
	p.mu.Unlock()

	if fd < 0 {
		return ConnectFailed
	}

	if !deadline.IsZero() && now.After(deadline) {
		p.markTargetFailed()
		return ConnectFailed
	}

	connected, failed := CheckConnected(fd)
	switch {
	case failed:
		p.markTargetFailed()
		return ConnectFailed
	case connected:
		p.mu.Lock()
		p.state = Established
		p.mu.Unlock()
		return ConnectSucceeded
	default:
		return ConnectPending
	}
}

// AbandonUpstream closes the current upstream fd (if any) and returns
// the pair to Idle, so a new BeginConnect can be issued against a
// different host.
func (p *Pair) AbandonUpstream() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.upstreamFD >= 0 {
		ShutdownClose(p.upstreamFD)
		p.upstreamFD = -1
	}
	p.targetAddr = nil
	if p.state != Dead {
		p.state = Idle
	}
}

func (p *Pair) markTargetFailed() {
	p.mu.Lock()
	p.lastTargetErrored = true
	p.mu.Unlock()
	p.AbandonUpstream()
}
