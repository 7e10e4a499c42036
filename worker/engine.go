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

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nabbar/gobalance/conn"
	liblog "github.com/nabbar/gobalance/logger"

	lhost "github.com/nabbar/gobalance/host"
)

// Config holds the per-worker tunables of spec.md §4.5/§6.
type Config struct {
	// ConnectTimeout bounds a single connect attempt (reference 400ms).
	ConnectTimeout time.Duration
	// PollTimeout bounds how long Wait may block with nothing ready,
	// which is also how quickly a newly admitted pair is noticed.
	PollTimeout time.Duration
}

// Engine drives one worker's event loop: its own poller, its own inbox,
// its own set of owned pairs. No state is shared between engines except
// the host Registry, which is already internally synchronized.
type Engine struct {
	id  int
	cfg Config

	poller Poller
	ids    *idGenerator
	inbox  *inbox

	hosts lhost.Registry
	log   liblog.Logger

	mu    sync.Mutex
	pairs map[PairID]*conn.Pair

	load atomic.Int64

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewEngine constructs a worker bound to hosts, using NewPoller for the
// platform readiness backend.
func NewEngine(workerID int, cfg Config, hosts lhost.Registry, log liblog.Logger) (*Engine, error) {
	p, err := NewPoller()
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = liblog.New(liblog.Options{})
	}

	return &Engine{
		id:     workerID,
		cfg:    cfg,
		poller: p,
		ids:    newIDGenerator(),
		inbox:  newInbox(),
		hosts:  hosts,
		log:    log,
		pairs:  make(map[PairID]*conn.Pair),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Load reports how many pairs this worker currently owns, for the
// dispatcher's least-loaded selection (spec.md §4.2).
func (e *Engine) Load() int { return int(e.load.Load()) }

// Admit hands a freshly accepted pair to this worker's inbox. Non-
// blocking; returns ErrInboxFull if the worker is backed up.
func (e *Engine) Admit(p *conn.Pair) error {
	if err := e.inbox.push(p); err != nil {
		return err
	}
	e.load.Add(1)
	return nil
}

// Start runs the event loop in the current goroutine until Stop is
// called. Intended to be launched via `go engine.Start()`.
func (e *Engine) Start() {
	defer close(e.doneCh)

	for {
		select {
		case <-e.stopCh:
			e.shutdown()
			return
		default:
		}

		e.admitQueued()

		events, err := e.poller.Wait(e.cfg.PollTimeout)
		if err != nil {
			e.log.Error("poller wait failed", liblog.Fields{"worker": e.id, "error": err.Error()})
			continue
		}

		for _, ev := range events {
			e.handle(ev)
		}

		e.reapDead()
	}
}

// Stop signals the loop to exit and blocks until it has.
func (e *Engine) Stop() {
	close(e.stopCh)
	<-e.doneCh
}

func (e *Engine) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.pairs {
		p.Close()
	}
	e.pairs = make(map[PairID]*conn.Pair)
	_ = e.poller.Close()
}

func (e *Engine) admitQueued() {
	for _, p := range e.inbox.drain(inboxCapacity) {
		e.register(p)
	}
}

func (e *Engine) register(p *conn.Pair) {
	id := e.ids.Next()
	p.SetID(uint64(id))

	e.mu.Lock()
	e.pairs[id] = p
	e.mu.Unlock()

	if err := e.poller.Register(p.ClientFD(), id, Readable); err != nil {
		e.log.Warning("failed to register client fd", liblog.Fields{"worker": e.id, "error": err.Error()})
		e.drop(id, p)
		return
	}

	// No host is selected yet: a freshly admitted pair stays Idle until
	// its client fd actually reports readiness (spec.md §4.3).
}

// handleIdle runs on the first readiness event seen for a pair that has
// not yet had an upstream chosen. It peeks, without consuming, whether
// the client actually sent anything: a client that closes before
// writing reaches Dead with no host ever contacted (spec.md §8's
// round-trip property); only real pending data triggers selection.
func (e *Engine) handleIdle(id PairID, p *conn.Pair, ev Event) {
	if ev.FD != p.ClientFD() || (!ev.Readable && !ev.Err) {
		return
	}

	hasData, eof, err := conn.PeekReadable(p.ClientFD())
	if err != nil || eof {
		e.drop(id, p)
		return
	}
	if !hasData {
		return
	}

	e.connectNext(id, p)
}

// connectNext asks the host registry for a target and begins a connect,
// registering the upstream fd for write-readiness while it completes.
// A synchronous failure (e.g. a refused loopback connection) returns the
// pair to Idle instead of dropping it: spec.md §4.3's connecting -> idle
// transition and scenario 4's "stays alive cycling selections" both
// require the pair to keep retrying, not die, while upstreams are down.
// The still-unconsumed client data (peeked, never read) keeps the
// client fd readable, so the event loop retries once per tick without
// recursing.
func (e *Engine) connectNext(id PairID, p *conn.Pair) {
	target := e.hosts.NextHost()

	if err := p.BeginConnect(target, e.cfg.ConnectTimeout); err != nil {
		e.hosts.ReportError(target)
		e.log.Warning("connect attempt failed immediately", liblog.Fields{
			"worker": e.id, "target": target.String(), "error": err.Error(),
		})
		p.AbandonUpstream()
		return
	}

	if p.State() == conn.Established {
		e.hosts.ReportSuccess(target)
		if err := e.poller.Register(p.UpstreamFD(), id, Readable); err != nil {
			e.drop(id, p)
		}
		return
	}

	if err := e.poller.Register(p.UpstreamFD(), id, Writable); err != nil {
		e.drop(id, p)
	}
}

func (e *Engine) handle(ev Event) {
	e.mu.Lock()
	p, ok := e.pairs[ev.ID]
	e.mu.Unlock()
	if !ok {
		return
	}

	switch p.State() {
	case conn.Idle:
		e.handleIdle(ev.ID, p, ev)
	case conn.Connecting:
		e.handleConnecting(ev.ID, p, ev)
	case conn.Established:
		e.handleEstablished(ev.ID, p, ev)
	default:
	}
}

func (e *Engine) handleConnecting(id PairID, p *conn.Pair, ev Event) {
	outcome := p.PollConnect(time.Now())
	switch outcome {
	case conn.ConnectPending:
		return
	case conn.ConnectSucceeded:
		target := p.TargetAddr()
		e.hosts.ReportSuccess(target)
		_ = e.poller.Modify(p.UpstreamFD(), id, Readable)
	case conn.ConnectFailed:
		addr, _ := p.LastTarget()
		if addr != nil {
			e.hosts.ReportError(addr)
		}
		_ = e.poller.Deregister(p.UpstreamFD())
		e.connectNext(id, p)
	}
}

func (e *Engine) handleEstablished(id PairID, p *conn.Pair, ev Event) {
	ownDir, oppDir := conn.ClientToUpstream, conn.UpstreamToClient
	if ev.FD == p.UpstreamFD() {
		ownDir, oppDir = conn.UpstreamToClient, conn.ClientToUpstream
	}

	// Writable fires for a leg with residual bytes queued from a prior
	// blocked write (the opposite direction's destination); flush it
	// before touching the freshly readable side.
	if ev.Writable {
		if !e.pump(id, p, oppDir, false) {
			return
		}
	}

	if ev.Readable || ev.Err {
		if !e.pump(id, p, ownDir, ev.Err) {
			return
		}
	}

	e.syncInterest(id, p, p.ClientFD())
	e.syncInterest(id, p, p.UpstreamFD())
}

// pump runs one forwarding pass for dir. A hard error or an unrecovered
// poll error (ev.Err on a pass that moved no bytes) drops the pair and
// reports its target as failed; a clean EOF half-closes that leg and,
// once both legs are done and nothing remains queued, drops the pair:
// both fds are deregistered and closed, the pair is marked Dead and
// removed from the registry at once (spec.md §4.4 steps 1 & 3, §8
// invariant 4: dead implies both sockets closed). Returns false once the
// pair has been dropped, so the caller stops touching it.
func (e *Engine) pump(id PairID, p *conn.Pair, dir conn.Direction, pollErr bool) bool {
	res := p.Pump(dir)
	switch {
	case res.Err != nil:
		e.failTarget(p)
		e.drop(id, p)
		return false
	case res.PeerEOF:
		p.HalfCloseWrite(dir)
		p.MarkEOF(dir)
	case pollErr && res.BytesMoved == 0:
		e.failTarget(p)
		e.drop(id, p)
		return false
	}

	if p.BothEOF() && !p.HasPending(conn.ClientToUpstream) && !p.HasPending(conn.UpstreamToClient) {
		e.drop(id, p)
		return false
	}

	return true
}

func (e *Engine) failTarget(p *conn.Pair) {
	if addr := p.TargetAddr(); addr != nil {
		e.hosts.ReportError(addr)
	}
}

// desiredInterest reports the poller interest fd should carry: Readable
// while the direction reading fd hasn't seen EOF, Writable while the
// direction writing into fd still has a queued residual from a blocked
// write (the §4.4/§10 half-close and write-readiness refinements).
func desiredInterest(p *conn.Pair, fd int) Interest {
	readDir, writeDir := conn.ClientToUpstream, conn.UpstreamToClient
	if fd == p.UpstreamFD() {
		readDir, writeDir = conn.UpstreamToClient, conn.ClientToUpstream
	}

	var interest Interest
	if !p.SawEOF(readDir) {
		interest |= Readable
	}
	if p.HasPending(writeDir) {
		interest |= Writable
	}
	return interest
}

// syncInterest reconciles fd's poller registration with desiredInterest,
// deregistering once neither bit applies. This is what stops a quiesced
// leg on a level-triggered backend from re-firing forever once its peer
// has EOF'd and nothing is left to flush.
func (e *Engine) syncInterest(id PairID, p *conn.Pair, fd int) {
	if fd < 0 {
		return
	}

	if interest := desiredInterest(p, fd); interest != 0 {
		_ = e.poller.Modify(fd, id, interest)
	} else {
		_ = e.poller.Deregister(fd)
	}
}

func (e *Engine) reapDead() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id, p := range e.pairs {
		if p.State() == conn.Dead {
			delete(e.pairs, id)
			e.load.Add(-1)
		}
	}
}

func (e *Engine) drop(id PairID, p *conn.Pair) {
	_ = e.poller.Deregister(p.ClientFD())
	if fd := p.UpstreamFD(); fd >= 0 {
		_ = e.poller.Deregister(fd)
	}
	p.Close()

	e.mu.Lock()
	delete(e.pairs, id)
	e.mu.Unlock()
	e.load.Add(-1)
}
