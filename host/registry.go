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
	"math"
	"net"
	"time"

	liberr "github.com/nabbar/gobalance/errors"
	liblog "github.com/nabbar/gobalance/logger"
)

type registry struct {
	hosts  []*Host
	policy Policy

	base time.Duration
	cap  uint

	log liblog.Logger
}

// Config holds the cooldown backoff parameters from spec.md §4.1.
type Config struct {
	// CooldownBase is the base backoff duration (reference: 500ms).
	CooldownBase time.Duration
	// CooldownCap bounds the exponent (reference: 6, i.e. max 64x base).
	CooldownCap uint
}

// NewRegistry builds a Registry over addrs using policy for selection.
// Returns a liberr.Error with code HostRegistryEmpty if addrs is empty,
// per spec.md §3's non-empty invariant.
func NewRegistry(addrs []*net.TCPAddr, policy Policy, cfg Config, log liblog.Logger) (Registry, error) {
	if len(addrs) == 0 {
		return nil, liberr.New(liberr.HostRegistryEmpty, "registry requires at least one host", nil)
	}

	if policy == nil {
		policy = NewRoundRobin()
	}

	if log == nil {
		log = liblog.New(liblog.Options{})
	}

	hosts := make([]*Host, len(addrs))
	for i, a := range addrs {
		hosts[i] = &Host{addr: a, health: Healthy}
	}

	return &registry{hosts: hosts, policy: policy, base: cfg.CooldownBase, cap: cfg.CooldownCap, log: log}, nil
}

func (r *registry) Len() int { return len(r.hosts) }

func (r *registry) snapshots(now time.Time) []snapshot {
	out := make([]snapshot, len(r.hosts))
	for i, h := range r.hosts {
		out[i] = h.snapshot(i, now)
	}
	return out
}

func (r *registry) NextHost() *net.TCPAddr {
	now := time.Now()
	snaps := r.snapshots(now)
	idx := r.policy.Select(snaps, now)
	return r.hosts[idx].addr
}

func (r *registry) find(addr *net.TCPAddr) *Host {
	for _, h := range r.hosts {
		if tcpAddrEqual(h.addr, addr) {
			return h
		}
	}
	return nil
}

func tcpAddrEqual(a, b *net.TCPAddr) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Port == b.Port && a.IP.Equal(b.IP)
}

func (r *registry) ReportError(addr *net.TCPAddr) {
	h := r.find(addr)
	if h == nil {
		return
	}

	h.mu.Lock()
	h.consecutiveError++
	shift := h.consecutiveError
	if r.cap > 0 && uint64(shift) > uint64(r.cap) {
		shift = r.cap
	}
	backoff := r.base * time.Duration(math.Pow(2, float64(shift)))
	h.health = Cooling
	h.cooldownUntil = time.Now().Add(backoff)
	errs := h.consecutiveError
	h.mu.Unlock()

	r.log.Warning("upstream marked cooling", liblog.Fields{
		"host":               addr.String(),
		"consecutive_errors": errs,
		"cooldown":           backoff.String(),
	})
}

func (r *registry) ReportSuccess(addr *net.TCPAddr) {
	h := r.find(addr)
	if h == nil {
		return
	}

	h.mu.Lock()
	wasCooling := h.health == Cooling
	h.health = Healthy
	h.cooldownUntil = time.Time{}
	h.consecutiveError = 0
	h.mu.Unlock()

	if wasCooling {
		r.log.Info("upstream recovered", liblog.Fields{"host": addr.String()})
	}
}

func (r *registry) IsOnCooldown(addr *net.TCPAddr) bool {
	h := r.find(addr)
	if h == nil {
		return false
	}

	s := h.snapshot(0, time.Now())
	return s.health == Cooling
}

func (r *registry) ConsecutiveErrors(addr *net.TCPAddr) uint {
	h := r.find(addr)
	if h == nil {
		return 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.consecutiveError
}
