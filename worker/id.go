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

// Package worker implements the per-worker event loop of spec.md §4.5:
// each worker owns a readiness poller, an inbox of freshly admitted
// pairs, and a registry of the pairs it is currently driving.
package worker

import "sync/atomic"

// PairID identifies a Pair within a single worker's registry. Identifiers
// are never zero (spec.md §4.5: "the identifier counter skips 0, which is
// reserved to mean 'no pair'"), and wrap around uint64 after exhaustion,
// skipping 0 again on wraparound.
type PairID uint64

// idGenerator produces PairIDs local to one worker.
type idGenerator struct {
	next atomic.Uint64
}

func newIDGenerator() *idGenerator {
	g := &idGenerator{}
	g.next.Store(1)
	return g
}

func (g *idGenerator) Next() PairID {
	for {
		v := g.next.Add(1) - 1
		if v != 0 {
			return PairID(v)
		}
		// Wrapped exactly onto 0: skip it and try again.
	}
}
