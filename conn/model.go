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
	"sync"
	"time"
)

// Pair holds one client socket and at most one upstream socket, plus the
// bookkeeping spec.md §4.3 requires to drive reselection on failure: the
// address last tried and whether it errored, so the worker can ask the
// host registry for a fresh target without repeating a dead one.
type Pair struct {
	mu sync.Mutex

	id uint64

	clientFD   int
	clientAddr *net.TCPAddr

	upstreamFD   int
	targetAddr   *net.TCPAddr

	lastTargetAddr    *net.TCPAddr
	lastTargetErrored bool

	state State

	connectDeadline time.Time

	buf []byte

	// clientEOF/upstreamEOF record, per direction, whether that leg's
	// read side has reached end-of-stream (spec.md §4.4 steps 1 & 3).
	// The pair only reaches Dead once both are true and nothing residual
	// is left to flush.
	clientEOF   bool
	upstreamEOF bool

	// pendingToUpstream/pendingToClient hold bytes a prior Pump pass read
	// but could not fully write, so a short or blocked write never drops
	// data (spec.md §4.4's named simplification is a dropped *read*
	// pass when the peer isn't ready yet, not dropped bytes already in
	// flight).
	pendingToUpstream []byte
	pendingToClient   []byte
}

// NewPair wraps an already-accepted, already non-blocking client fd. The
// upstream side starts unset (Idle); BeginConnect populates it.
func NewPair(clientFD int, clientAddr *net.TCPAddr, bufSize int) *Pair {
	return &Pair{
		clientFD:   clientFD,
		clientAddr: clientAddr,
		upstreamFD: -1,
		state:      Idle,
		buf:        make([]byte, bufSize),
	}
}

// SetID assigns the worker-local pair identifier (spec.md §4.5); called
// once at registration time.
func (p *Pair) SetID(id uint64) { p.id = id }

// ID returns the worker-local pair identifier.
func (p *Pair) ID() uint64 { return p.id }

// ClientFD returns the client-side file descriptor.
func (p *Pair) ClientFD() int { return p.clientFD }

// ClientAddr returns the remote address of the accepted client.
func (p *Pair) ClientAddr() *net.TCPAddr { return p.clientAddr }

// UpstreamFD returns the upstream-side file descriptor, or -1 if none is
// currently open.
func (p *Pair) UpstreamFD() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.upstreamFD
}

// TargetAddr returns the address currently being connected or forwarded
// to, or nil if no target has been chosen yet.
func (p *Pair) TargetAddr() *net.TCPAddr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.targetAddr
}

// LastTarget reports the most recently attempted target address and
// whether that attempt ended in an error, for the worker's reselection
// logic (spec.md §4.3: "retry with the host registry excluding nothing,
// but recording the failure").
func (p *Pair) LastTarget() (addr *net.TCPAddr, errored bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastTargetAddr, p.lastTargetErrored
}

// State returns the current lifecycle state.
func (p *Pair) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState transitions the pair. The worker engine is the only caller;
// no validation of the transition graph is performed here, matching
// spec.md's description of the state machine as advisory bookkeeping
// rather than an enforced automaton.
func (p *Pair) SetState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// ConnectDeadline returns the instant by which the in-flight connect
// attempt must complete, per spec.md §4.3's per-attempt timeout.
func (p *Pair) ConnectDeadline() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectDeadline
}

// Buffer returns the fixed-size forwarding buffer shared by both
// directions (spec.md §4.4: one buffer per pair, reused every pass).
func (p *Pair) Buffer() []byte { return p.buf }

// Close shuts down and closes both sockets and marks the pair Dead. Safe
// to call more than once.
func (p *Pair) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Dead {
		return
	}

	if p.clientFD >= 0 {
		ShutdownClose(p.clientFD)
		p.clientFD = -1
	}
	if p.upstreamFD >= 0 {
		ShutdownClose(p.upstreamFD)
		p.upstreamFD = -1
	}
	p.state = Dead
}
