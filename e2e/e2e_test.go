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

// Package e2e wires a listener, dispatcher, worker pool and host
// registry together exactly as cmd/gobalance does, and drives the six
// scenarios named in spec.md §8 end to end over real loopback sockets.
package e2e_test

import (
	"crypto/rand"
	"crypto/sha256"
	"io"
	"net"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/gobalance/dispatcher"
	"github.com/nabbar/gobalance/host"
	"github.com/nabbar/gobalance/listener"
	"github.com/nabbar/gobalance/worker"
)

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "e2e suite")
}

// upstream is a minimal TCP echo server used as a stand-in target.
type upstream struct {
	ln   net.Listener
	addr *net.TCPAddr
}

func newEchoUpstream() *upstream {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())

	u := &upstream{ln: ln, addr: ln.Addr().(*net.TCPAddr)}
	go func() {
		for {
			c, aerr := ln.Accept()
			if aerr != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				_, _ = io.Copy(c, c)
			}(c)
		}
	}()
	return u
}

// newRefusingUpstream binds then immediately closes, so the port refuses
// every connection attempt without ever completing a handshake.
func newRefusingUpstream() *net.TCPAddr {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	addr := ln.Addr().(*net.TCPAddr)
	_ = ln.Close()
	return addr
}

func startProxy(targets []*net.TCPAddr, workers int) (*listener.Listener, *worker.Pool, host.Registry) {
	registry, err := host.NewRegistry(targets, host.NewRoundRobin(),
		host.Config{CooldownBase: 20 * time.Millisecond, CooldownCap: 4}, nil)
	Expect(err).NotTo(HaveOccurred())

	pool, err := worker.NewPool(workers, worker.Config{
		ConnectTimeout: 200 * time.Millisecond,
		PollTimeout:    2 * time.Millisecond,
	}, registry, nil)
	Expect(err).NotTo(HaveOccurred())

	disp := dispatcher.New(pool, nil)

	ln, err := listener.Listen(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}, 32*1024, nil)
	Expect(err).NotTo(HaveOccurred())

	pool.Start()
	go ln.Serve(disp)

	return ln, pool, registry
}

// totalLoad sums every engine's load, which spec.md §8 invariant 1 pins
// to the number of live pairs across the pool.
func totalLoad(pool *worker.Pool) int {
	n := 0
	for i := 0; i < pool.Len(); i++ {
		n += pool.Engine(i).Load()
	}
	return n
}

var _ = Describe("simple echo", func() {
	It("round-trips a single message through one upstream", func() {
		up := newEchoUpstream()
		defer up.ln.Close()

		ln, pool, _ := startProxy([]*net.TCPAddr{up.addr}, 2)
		defer func() { _ = ln.Close(); pool.Stop() }()

		c, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		_, err = c.Write([]byte("ping"))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 16)
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := c.Read(buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("ping"))
	})
})

var _ = Describe("balanced admission", func() {
	It("keeps every worker's load within one of another and reaps every pair once clients close", func() {
		up := newEchoUpstream()
		defer up.ln.Close()

		ln, pool, _ := startProxy([]*net.TCPAddr{up.addr}, 4)
		defer func() { _ = ln.Close(); pool.Stop() }()

		var conns []net.Conn
		for i := 0; i < 8; i++ {
			c, err := net.Dial("tcp", ln.Addr().String())
			Expect(err).NotTo(HaveOccurred())
			// Send something so each pair actually selects a host and
			// gets counted as live load, not just an idle accept.
			_, werr := c.Write([]byte("x"))
			Expect(werr).NotTo(HaveOccurred())
			conns = append(conns, c)
		}

		spread := func() int {
			min, max := pool.Engine(0).Load(), pool.Engine(0).Load()
			for i := 1; i < pool.Len(); i++ {
				l := pool.Engine(i).Load()
				if l < min {
					min = l
				}
				if l > max {
					max = l
				}
			}
			return max - min
		}
		Eventually(spread, time.Second, 5*time.Millisecond).Should(BeNumerically("<=", 1))
		Eventually(func() int { return totalLoad(pool) }, time.Second, 5*time.Millisecond).Should(Equal(8))

		for _, c := range conns {
			c.Close()
		}

		Eventually(func() int { return totalLoad(pool) }, 2*time.Second, 10*time.Millisecond).Should(Equal(0))
	})
})

var _ = Describe("one upstream down, one alternate healthy", func() {
	It("fails over to the healthy host without surfacing an error to the client", func() {
		down := newRefusingUpstream()
		up := newEchoUpstream()
		defer up.ln.Close()

		ln, pool, _ := startProxy([]*net.TCPAddr{down, up.addr}, 2)
		defer func() { _ = ln.Close(); pool.Stop() }()

		Eventually(func() bool {
			c, err := net.Dial("tcp", ln.Addr().String())
			if err != nil {
				return false
			}
			defer c.Close()

			_, werr := c.Write([]byte("hi"))
			if werr != nil {
				return false
			}
			buf := make([]byte, 8)
			_ = c.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
			n, rerr := c.Read(buf)
			return rerr == nil && string(buf[:n]) == "hi"
		}, 3*time.Second, 50*time.Millisecond).Should(BeTrue())
	})
})

var _ = Describe("all upstreams down", func() {
	It("keeps the pair alive cycling selections until the client closes its own socket", func() {
		down1 := newRefusingUpstream()
		down2 := newRefusingUpstream()

		ln, pool, registry := startProxy([]*net.TCPAddr{down1, down2}, 2)
		defer func() { _ = ln.Close(); pool.Stop() }()

		c, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Write([]byte("hi"))
		Expect(err).NotTo(HaveOccurred())

		buf := make([]byte, 8)
		_ = c.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
		_, rerr := c.Read(buf)
		Expect(rerr).To(HaveOccurred())

		// Exactly one pair is live: it keeps reselecting rather than dying.
		Expect(totalLoad(pool)).To(Equal(1))

		errsBefore := registry.ConsecutiveErrors(down1) + registry.ConsecutiveErrors(down2)
		Eventually(func() uint {
			return registry.ConsecutiveErrors(down1) + registry.ConsecutiveErrors(down2)
		}, time.Second, 10*time.Millisecond).Should(BeNumerically(">", errsBefore))

		Expect(totalLoad(pool)).To(Equal(1))

		c.Close()
		Eventually(func() int { return totalLoad(pool) }, time.Second, 10*time.Millisecond).Should(Equal(0))

		// The proxy itself must still be accepting new clients.
		c2, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		c2.Close()
	})
})

var _ = Describe("upstream connect stalls", func() {
	It("abandons a connect attempt that never completes within the per-attempt timeout", func() {
		// RFC 5737 TEST-NET-1: routable-looking but non-routed, so the
		// connect attempt neither succeeds nor is immediately refused.
		stalled := &net.TCPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 9}
		up := newEchoUpstream()
		defer up.ln.Close()

		ln, pool, _ := startProxy([]*net.TCPAddr{stalled, up.addr}, 2)
		defer func() { _ = ln.Close(); pool.Stop() }()

		Eventually(func() bool {
			c, err := net.Dial("tcp", ln.Addr().String())
			if err != nil {
				return false
			}
			defer c.Close()

			_, werr := c.Write([]byte("hi"))
			if werr != nil {
				return false
			}
			buf := make([]byte, 8)
			_ = c.SetReadDeadline(time.Now().Add(400 * time.Millisecond))
			n, rerr := c.Read(buf)
			return rerr == nil && string(buf[:n]) == "hi"
		}, 5*time.Second, 100*time.Millisecond).Should(BeTrue())
	})
})

var _ = Describe("large transfer", func() {
	It("forwards a 16MiB payload intact, verified by SHA-256", func() {
		up := newEchoUpstream()
		defer up.ln.Close()

		ln, pool, _ := startProxy([]*net.TCPAddr{up.addr}, 2)
		defer func() { _ = ln.Close(); pool.Stop() }()

		c, err := net.Dial("tcp", ln.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		const size = 16 * 1024 * 1024
		payload := make([]byte, size)
		_, err = rand.Read(payload)
		Expect(err).NotTo(HaveOccurred())
		want := sha256.Sum256(payload)

		done := make(chan error, 1)
		go func() {
			_, werr := c.Write(payload)
			done <- werr
		}()

		_ = c.SetReadDeadline(time.Now().Add(30 * time.Second))
		h := sha256.New()
		_, rerr := io.CopyN(h, c, size)
		Expect(rerr).NotTo(HaveOccurred())
		Expect(<-done).NotTo(HaveOccurred())

		var got [32]byte
		copy(got[:], h.Sum(nil))
		Expect(got).To(Equal(want))
	})
})
