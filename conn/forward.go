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

// Direction names one leg of a Pair for logging and error attribution.
type Direction uint8

const (
	// ClientToUpstream: bytes read from the client, written upstream.
	ClientToUpstream Direction = iota
	// UpstreamToClient: bytes read from upstream, written to the client.
	UpstreamToClient
)

func (d Direction) String() string {
	if d == UpstreamToClient {
		return "upstream->client"
	}
	return "client->upstream"
}

// PumpResult reports what a single forwarding pass accomplished, so the
// worker engine can decide whether to keep the pair registered, half-
// close it, or tear it down.
type PumpResult struct {
	BytesMoved int
	// PeerEOF is true when the read side reached end-of-stream; the
	// caller should half-close the write side's peer.
	PeerEOF bool
	// Err is set when either leg failed outright (not a would-block).
	Err error
}

// Pump performs the forwarding pass of spec.md §4.4 for one direction.
// If residual bytes are left over from a prior blocked write, the pass
// only tries to write those and does not read; otherwise it reads
// whatever is available from the ready side into the pair's shared
// buffer and attempts to write it out.
// A short or blocked write never drops bytes: the unwritten remainder is
// copied aside and retried on the next pass, so scenario 6's buffer-
// boundary transfer checksums never diverge from a would-block.
func (p *Pair) Pump(dir Direction) PumpResult {
	readFD, writeFD := p.legFDs(dir)
	if readFD < 0 || writeFD < 0 {
		return PumpResult{Err: errNoUpstream}
	}

	if residual := p.pending(dir); len(residual) > 0 {
		return p.writeOrQueue(dir, writeFD, residual)
	}

	n, wouldBlock, err := ReadNonblocking(readFD, p.buf)
	if err != nil {
		return PumpResult{Err: err}
	}
	if wouldBlock {
		return PumpResult{}
	}
	if n == 0 {
		return PumpResult{PeerEOF: true}
	}

	return p.writeOrQueue(dir, writeFD, p.buf[:n])
}

// writeOrQueue writes buf to writeFD, queuing any unwritten remainder as
// the direction's residual rather than discarding it.
func (p *Pair) writeOrQueue(dir Direction, writeFD int, buf []byte) PumpResult {
	written, wouldBlock, err := WriteNonblocking(writeFD, buf)
	if err != nil {
		return PumpResult{Err: err}
	}

	if wouldBlock {
		written = 0
	}

	if written < len(buf) {
		rest := make([]byte, len(buf)-written)
		copy(rest, buf[written:])
		p.setPending(dir, rest)
	} else {
		p.setPending(dir, nil)
	}

	return PumpResult{BytesMoved: written}
}

func (p *Pair) legFDs(dir Direction) (readFD, writeFD int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if dir == ClientToUpstream {
		return p.clientFD, p.upstreamFD
	}
	return p.upstreamFD, p.clientFD
}

// HalfCloseWrite shuts down the write half of one leg, letting the
// remaining direction drain naturally (spec.md's graceful half-close
// supplement, §10).
func (p *Pair) HalfCloseWrite(dir Direction) {
	p.mu.Lock()
	fd := p.clientFD
	if dir == ClientToUpstream {
		fd = p.upstreamFD
	}
	p.mu.Unlock()

	if fd >= 0 {
		shutdownWrite(fd)
	}
}

// MarkEOF records that dir's read side has reached end-of-stream.
func (p *Pair) MarkEOF(dir Direction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dir == ClientToUpstream {
		p.clientEOF = true
	} else {
		p.upstreamEOF = true
	}
}

// SawEOF reports whether dir's read side has reached end-of-stream.
func (p *Pair) SawEOF(dir Direction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dir == ClientToUpstream {
		return p.clientEOF
	}
	return p.upstreamEOF
}

// BothEOF reports whether both legs have reached end-of-stream, the
// precondition for retiring a pair to Dead (spec.md §4.4 steps 1 & 3).
func (p *Pair) BothEOF() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clientEOF && p.upstreamEOF
}

// HasPending reports whether dir still has unwritten bytes queued from a
// prior short or blocked write.
func (p *Pair) HasPending(dir Direction) bool {
	return len(p.pending(dir)) > 0
}

func (p *Pair) pending(dir Direction) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dir == ClientToUpstream {
		return p.pendingToUpstream
	}
	return p.pendingToClient
}

func (p *Pair) setPending(dir Direction, b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if dir == ClientToUpstream {
		p.pendingToUpstream = b
	} else {
		p.pendingToClient = b
	}
}
