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

package dispatcher_test

import (
	"net"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gconn "github.com/nabbar/gobalance/conn"
	"github.com/nabbar/gobalance/dispatcher"
	ghost "github.com/nabbar/gobalance/host"
	"github.com/nabbar/gobalance/worker"
)

func TestDispatcher(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "dispatcher suite")
}

var _ = Describe("Admit", func() {
	It("balances admissions across the pool via least-loaded selection", func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		defer ln.Close()
		go func() {
			for {
				c, aerr := ln.Accept()
				if aerr != nil {
					return
				}
				c.Close()
			}
		}()
		upstream := ln.Addr().(*net.TCPAddr)

		registry, err := ghost.NewRegistry(
			[]*net.TCPAddr{upstream}, ghost.NewRoundRobin(),
			ghost.Config{CooldownBase: time.Second, CooldownCap: 4}, nil,
		)
		Expect(err).NotTo(HaveOccurred())

		pool, err := worker.NewPool(2, worker.Config{
			ConnectTimeout: time.Second, PollTimeout: 5 * time.Millisecond,
		}, registry, nil)
		Expect(err).NotTo(HaveOccurred())

		d := dispatcher.New(pool, nil)

		d.Admit(gconn.NewPair(-1, nil, 4096))
		Expect(pool.Engine(0).Load()).To(Equal(1))
		Expect(pool.Engine(1).Load()).To(Equal(0))

		d.Admit(gconn.NewPair(-1, nil, 4096))
		Expect(pool.Engine(0).Load()).To(Equal(1))
		Expect(pool.Engine(1).Load()).To(Equal(1))
	})
})
