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

// Package hostfile parses the upstream host list described in spec.md
// §3 and §6.2: one "<host>:<port>" entry per line, blank lines and
// "#"-prefixed comments ignored, DNS names resolved at load time with
// unresolvable entries skipped and warned about rather than aborting
// the whole file (SPEC_FULL.md Open Question resolution #1).
package hostfile

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	liberr "github.com/nabbar/gobalance/errors"
	liblog "github.com/nabbar/gobalance/logger"
)

// Load reads path and resolves every entry to a *net.TCPAddr. An empty
// result (every entry skipped, or the file itself contained nothing
// usable) is returned with a nil error: per original_source/src/main.rs
// and spec.md, a host file with no usable entries is not a startup
// failure, it is a run with nothing to serve, and the caller decides
// whether that means exiting cleanly.
func Load(path string, log liblog.Logger) ([]*net.TCPAddr, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, liberr.Wrap(liberr.HostFileMissing, fmt.Sprintf("cannot open host file %q", path), err)
	}
	defer f.Close()

	if log == nil {
		log = liblog.New(liblog.Options{})
	}

	return Parse(f, log)
}

// Parse reads "<host>:<port>" entries from r, skipping blank lines and
// "#" comments, and resolving each remaining entry with net.ResolveTCPAddr.
// An entry that fails to resolve is logged and skipped rather than
// aborting the parse.
func Parse(r io.Reader, log liblog.Logger) ([]*net.TCPAddr, error) {
	if log == nil {
		log = liblog.New(liblog.Options{})
	}

	var addrs []*net.TCPAddr

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		addr, err := net.ResolveTCPAddr("tcp", line)
		if err != nil {
			log.Warning("skipping unresolvable host entry", liblog.Fields{
				"line":  lineNo,
				"entry": line,
				"error": err.Error(),
			})
			continue
		}

		addrs = append(addrs, addr)
	}

	if err := scanner.Err(); err != nil {
		return nil, liberr.Wrap(liberr.HostFileMissing, "error reading host file", err)
	}

	return addrs, nil
}
