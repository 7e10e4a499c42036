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

// Package dispatcher implements the admission step of spec.md §4.2: a
// newly accepted client is handed to the currently least-loaded worker,
// tolerating the staleness inherent in reading load counters that other
// goroutines are concurrently mutating.
package dispatcher

import (
	"github.com/nabbar/gobalance/conn"
	liblog "github.com/nabbar/gobalance/logger"
	"github.com/nabbar/gobalance/worker"
)

// Dispatcher hands accepted connections to a worker Pool.
type Dispatcher struct {
	pool *worker.Pool
	log  liblog.Logger
}

// New builds a Dispatcher over pool.
func New(pool *worker.Pool, log liblog.Logger) *Dispatcher {
	if log == nil {
		log = liblog.New(liblog.Options{})
	}
	return &Dispatcher{pool: pool, log: log}
}

// Admit selects the least-loaded worker and pushes p onto its inbox. If
// that worker's inbox is saturated, the pair is dropped and closed: a
// worker backed up enough to fill its 1024-entry inbox is not a target
// worth retrying against (spec.md §4.2 names no cross-worker retry).
func (d *Dispatcher) Admit(p *conn.Pair) {
	idx := d.pool.LeastLoaded()
	eng := d.pool.Engine(idx)

	if err := eng.Admit(p); err != nil {
		d.log.Warning("dropping connection: worker inbox saturated", liblog.Fields{
			"worker": idx,
			"client": p.ClientAddr(),
		})
		p.Close()
	}
}
