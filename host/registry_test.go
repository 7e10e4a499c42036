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

package host_test

import (
	"net"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/gobalance/host"
)

func TestHost(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "host suite")
}

func addrs(n int) []*net.TCPAddr {
	out := make([]*net.TCPAddr, n)
	for i := range out {
		out[i] = &net.TCPAddr{IP: net.IPv4(127, 0, 0, byte(i+1)), Port: 9000 + i}
	}
	return out
}

var _ = Describe("NewRegistry", func() {
	It("rejects an empty host list", func() {
		_, err := host.NewRegistry(nil, nil, host.Config{}, nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("round-robin selection", func() {
	It("cycles through all healthy hosts before repeating", func() {
		a := addrs(3)
		r, err := host.NewRegistry(a, host.NewRoundRobin(), host.Config{CooldownBase: time.Millisecond, CooldownCap: 6}, nil)
		Expect(err).NotTo(HaveOccurred())

		seen := map[string]bool{}
		for i := 0; i < 3; i++ {
			seen[r.NextHost().String()] = true
		}
		Expect(seen).To(HaveLen(3))
	})
})

var _ = Describe("cooldown backoff", func() {
	It("marks a host cooling after a reported error and skips it while cooling", func() {
		a := addrs(2)
		r, err := host.NewRegistry(a, host.NewRoundRobin(), host.Config{CooldownBase: time.Hour, CooldownCap: 6}, nil)
		Expect(err).NotTo(HaveOccurred())

		r.ReportError(a[0])
		Expect(r.IsOnCooldown(a[0])).To(BeTrue())
		Expect(r.ConsecutiveErrors(a[0])).To(Equal(uint(1)))

		for i := 0; i < 5; i++ {
			Expect(r.NextHost().String()).To(Equal(a[1].String()))
		}
	})

	It("clears cooldown state on a reported success", func() {
		a := addrs(1)
		r, err := host.NewRegistry(a, host.NewRoundRobin(), host.Config{CooldownBase: time.Hour, CooldownCap: 6}, nil)
		Expect(err).NotTo(HaveOccurred())

		r.ReportError(a[0])
		Expect(r.IsOnCooldown(a[0])).To(BeTrue())

		r.ReportSuccess(a[0])
		Expect(r.IsOnCooldown(a[0])).To(BeFalse())
		Expect(r.ConsecutiveErrors(a[0])).To(Equal(uint(0)))
	})

	It("falls back to the host whose cooldown expires soonest when all are cooling", func() {
		a := addrs(2)
		r, err := host.NewRegistry(a, host.NewRoundRobin(), host.Config{CooldownBase: time.Millisecond, CooldownCap: 6}, nil)
		Expect(err).NotTo(HaveOccurred())

		r.ReportError(a[0])
		r.ReportError(a[0])
		r.ReportError(a[1])

		Expect(r.NextHost().String()).To(Equal(a[1].String()))
	})
})
