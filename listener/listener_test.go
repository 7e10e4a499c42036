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

package listener_test

import (
	"net"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	gconn "github.com/nabbar/gobalance/conn"
	"github.com/nabbar/gobalance/listener"
)

func TestListener(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "listener suite")
}

type recordingAdmitter struct {
	mu    sync.Mutex
	pairs []*gconn.Pair
}

func (r *recordingAdmitter) Admit(p *gconn.Pair) {
	r.mu.Lock()
	r.pairs = append(r.pairs, p)
	r.mu.Unlock()
}

func (r *recordingAdmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pairs)
}

var _ = Describe("Listener", func() {
	It("rejects binding an already-bound address", func() {
		l1, err := listener.Listen(&net.TCPAddr{IP: net.ParseIP("127.0.0.1")}, 4096, nil)
		Expect(err).NotTo(HaveOccurred())
		defer l1.Close()

		_, err = listener.Listen(l1.Addr(), 4096, nil)
		Expect(err).To(HaveOccurred())
	})

	It("admits each accepted client as a Pair", func() {
		l, err := listener.Listen(&net.TCPAddr{IP: net.ParseIP("127.0.0.1")}, 4096, nil)
		Expect(err).NotTo(HaveOccurred())
		defer l.Close()

		admitter := &recordingAdmitter{}
		go l.Serve(admitter)

		c, err := net.Dial("tcp", l.Addr().String())
		Expect(err).NotTo(HaveOccurred())
		defer c.Close()

		Eventually(admitter.count, "1s", "5ms").Should(Equal(1))
	})
})

var _ = Describe("timing sanity", func() {
	It("sees a channel closed by a goroutine after 10ms within a 1s deadline", func() {
		done := make(chan struct{})
		go func() {
			time.Sleep(10 * time.Millisecond)
			close(done)
		}()
		Eventually(done, "1s").Should(BeClosed())
	})
})
