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

	lhost "github.com/nabbar/gobalance/host"
	liblog "github.com/nabbar/gobalance/logger"
)

// Pool owns the fixed set of worker engines described in spec.md §4.2:
// a small number of long-lived workers (reference default: 4), each
// independently polling its own descriptors.
type Pool struct {
	engines []*Engine
	wg      sync.WaitGroup
}

// NewPool constructs count engines sharing hosts for target selection.
func NewPool(count int, cfg Config, hosts lhost.Registry, log liblog.Logger) (*Pool, error) {
	engines := make([]*Engine, count)
	for i := 0; i < count; i++ {
		e, err := NewEngine(i, cfg, hosts, log)
		if err != nil {
			return nil, err
		}
		engines[i] = e
	}
	return &Pool{engines: engines}, nil
}

// Start launches every engine's loop in its own goroutine.
func (p *Pool) Start() {
	for _, e := range p.engines {
		p.wg.Add(1)
		eng := e
		go func() {
			defer p.wg.Done()
			eng.Start()
		}()
	}
}

// Stop signals every engine to exit and waits for them to finish.
func (p *Pool) Stop() {
	for _, e := range p.engines {
		e.Stop()
	}
	p.wg.Wait()
}

// Len returns the number of engines in the pool.
func (p *Pool) Len() int { return len(p.engines) }

// Engine returns the i-th engine, for direct admission by index.
func (p *Pool) Engine(i int) *Engine { return p.engines[i] }

// LeastLoaded returns the index of the engine with the smallest current
// load, ties broken by lowest index (spec.md §4.2's least-loaded
// admission policy).
func (p *Pool) LeastLoaded() int {
	best := 0
	bestLoad := p.engines[0].Load()
	for i := 1; i < len(p.engines); i++ {
		if l := p.engines[i].Load(); l < bestLoad {
			best = i
			bestLoad = l
		}
	}
	return best
}
