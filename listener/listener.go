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

// Package listener accepts inbound TCP clients and hands each one to a
// Dispatcher, per spec.md §4.2's front door. Accept runs in its own
// goroutine, blocking as usual; everything past acceptance is
// non-blocking and owned by a worker.
package listener

import (
	"fmt"
	"net"

	gconn "github.com/nabbar/gobalance/conn"
	liberr "github.com/nabbar/gobalance/errors"
	liblog "github.com/nabbar/gobalance/logger"
)

// Admitter is the subset of dispatcher.Dispatcher the listener depends
// on, kept narrow so tests can supply a stub.
type Admitter interface {
	Admit(p *gconn.Pair)
}

// Listener wraps a bound TCP listener and the buffer size new pairs are
// constructed with.
type Listener struct {
	ln         *net.TCPListener
	bufferSize int
	log        liblog.Logger
}

// Listen binds addr. A bind failure is the startup error spec.md §6.2
// maps to a non-zero exit.
func Listen(addr *net.TCPAddr, bufferSize int, log liblog.Logger) (*Listener, error) {
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, liberr.Wrap(liberr.ListenerBindFailed, fmt.Sprintf("cannot bind %s", addr), err)
	}

	if log == nil {
		log = liblog.New(liblog.Options{})
	}

	return &Listener{ln: ln, bufferSize: bufferSize, log: log}, nil
}

// Addr returns the bound local address.
func (l *Listener) Addr() *net.TCPAddr { return l.ln.Addr().(*net.TCPAddr) }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Serve accepts connections until the listener is closed, admitting
// each one through d. Intended to be run in its own goroutine; returns
// when Close is called elsewhere.
func (l *Listener) Serve(d Admitter) {
	for {
		c, err := l.ln.AcceptTCP()
		if err != nil {
			return
		}

		fd, ferr := gconn.FDFromConn(c)
		peer := c.RemoteAddr()
		_ = c.Close()
		if ferr != nil {
			l.log.Warning("failed to extract fd from accepted connection", liblog.Fields{"error": ferr.Error()})
			continue
		}

		var clientAddr *net.TCPAddr
		if tcpAddr, ok := peer.(*net.TCPAddr); ok {
			clientAddr = tcpAddr
		}

		d.Admit(gconn.NewPair(fd, clientAddr, l.bufferSize))
	}
}
