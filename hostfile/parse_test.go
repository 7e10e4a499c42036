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

package hostfile_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/gobalance/errors"
	"github.com/nabbar/gobalance/hostfile"
)

func TestHostfile(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "hostfile suite")
}

var _ = Describe("Parse", func() {
	It("ignores blank lines and comments", func() {
		src := "# upstreams\n\n127.0.0.1:9001\n  \n127.0.0.1:9002\n"
		addrs, err := hostfile.Parse(strings.NewReader(src), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(addrs).To(HaveLen(2))
		Expect(addrs[0].Port).To(Equal(9001))
		Expect(addrs[1].Port).To(Equal(9002))
	})

	It("skips unresolvable entries instead of failing the whole file", func() {
		src := "127.0.0.1:9001\nnot a host at all::::\n127.0.0.1:9003\n"
		addrs, err := hostfile.Parse(strings.NewReader(src), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(addrs).To(HaveLen(2))
	})

	It("returns an empty slice, not an error, when every entry is skipped", func() {
		src := "# nothing here\n\n"
		addrs, err := hostfile.Parse(strings.NewReader(src), nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(addrs).To(BeEmpty())
	})
})

var _ = Describe("Load", func() {
	It("surfaces a HostFileMissing error for a nonexistent path", func() {
		_, err := hostfile.Load("/nonexistent/path/to/hosts", nil)
		Expect(err).To(HaveOccurred())
		coded, ok := err.(liberr.Error)
		Expect(ok).To(BeTrue())
		Expect(coded.Code()).To(Equal(liberr.HostFileMissing))
	})
})
