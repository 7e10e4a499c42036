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

import "github.com/nabbar/gobalance/conn"

// inboxCapacity bounds how many freshly admitted pairs may be queued for
// a worker; once it is reached, Admit returns ErrInboxFull and the
// dispatcher drops the new pair.
const inboxCapacity = 1024

// inbox is the multi-producer, single-consumer handoff queue of spec.md
// §4.5: any number of dispatcher goroutines may push; only the owning
// worker's loop ever pops.
type inbox struct {
	ch chan *conn.Pair
}

func newInbox() *inbox {
	return &inbox{ch: make(chan *conn.Pair, inboxCapacity)}
}

// push is non-blocking: a full inbox is back-pressure, not a place to
// stall the caller (which may be an Accept loop).
func (b *inbox) push(p *conn.Pair) error {
	select {
	case b.ch <- p:
		return nil
	default:
		return ErrInboxFull
	}
}

// drain pulls every currently queued pair without blocking.
func (b *inbox) drain(max int) []*conn.Pair {
	out := make([]*conn.Pair, 0, max)
	for len(out) < max {
		select {
		case p := <-b.ch:
			out = append(out, p)
		default:
			return out
		}
	}
	return out
}
