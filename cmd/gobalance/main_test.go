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

package main

import (
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/gobalance/errors"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "cmd/gobalance suite")
}

var _ = Describe("run", func() {
	It("prints the version and exits 0", func() {
		Expect(run([]string{"version"})).To(Equal(0))
	})

	It("exits 2 when the host file does not exist", func() {
		code := run([]string{"--hosts", "/nonexistent/hosts"})
		Expect(code).To(Equal(2))
	})

	It("exits 0 when the host file has no usable entries", func() {
		f, err := os.CreateTemp("", "gobalance-hosts-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.Remove(f.Name())
		f.Close()

		code := run([]string{"--hosts", f.Name()})
		Expect(code).To(Equal(0))
	})
})

var _ = Describe("exitCodeFor", func() {
	It("maps listener bind failures to exit code 2", func() {
		err := liberr.New(liberr.ListenerBindFailed, "bind failed", nil)
		Expect(exitCodeFor(err)).To(Equal(2))
	})

	It("maps uncoded errors to exit code 1", func() {
		Expect(exitCodeFor(fmtErr("boom"))).To(Equal(1))
	})
})

type plainError string

func (e plainError) Error() string { return string(e) }

func fmtErr(s string) error { return plainError(s) }
