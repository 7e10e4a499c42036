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

package config_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/gobalance/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "config suite")
}

var _ = Describe("Default", func() {
	It("passes its own validation", func() {
		Expect(config.Default().Validate()).To(Succeed())
	})
})

var _ = Describe("Validate", func() {
	It("rejects a port out of range", func() {
		c := config.Default()
		c.Port = 70000
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a missing host file path", func() {
		c := config.Default()
		c.HostsFile = ""
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a zero worker count", func() {
		c := config.Default()
		c.Workers = 0
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects an unrecognized log level", func() {
		c := config.Default()
		c.LogLevel = "verbose"
		Expect(c.Validate()).To(HaveOccurred())
	})

	It("rejects a non-positive connect timeout", func() {
		c := config.Default()
		c.ConnectTimeout = 0
		Expect(c.Validate()).To(HaveOccurred())
	})
})
