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

//go:build unix

// Raw, non-blocking fd-level socket operations for the forwarding path.
// The worker engine drives its own readiness poller (epoll/kqueue) rather
// than the Go runtime's built-in one, per spec.md §2 (C4) and §4.6; these
// helpers are the syscall layer underneath that poller, grounded on the
// fd-extraction and MSG_PEEK connect-completion idioms used throughout the
// retrieval pack (e.g. Orizon's kqueue poller, mdlayher/socket's Conn).
package conn

import (
	"net"

	"golang.org/x/sys/unix"
)

// DialNonblocking creates a non-blocking TCP socket and starts an
// asynchronous connect to addr. A true inProgress return means the caller
// must wait for write-readiness before calling CheckConnected.
func DialNonblocking(addr *net.TCPAddr) (fd int, inProgress bool, err error) {
	domain := unix.AF_INET
	sa, serr := tcpAddrToSockaddr(addr)
	if serr != nil {
		return -1, false, serr
	}
	if addr.IP.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err = unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, false, err
	}

	err = unix.Connect(fd, sa)
	switch err {
	case nil:
		return fd, false, nil
	case unix.EINPROGRESS, unix.EALREADY:
		return fd, true, nil
	case unix.EISCONN:
		// Already connected per spec.md §4.6 platform note.
		return fd, false, nil
	default:
		_ = unix.Close(fd)
		return -1, false, err
	}
}

func tcpAddrToSockaddr(addr *net.TCPAddr) (unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		var sa unix.SockaddrInet4
		sa.Port = addr.Port
		copy(sa.Addr[:], ip4)
		return &sa, nil
	}

	var sa unix.SockaddrInet6
	sa.Port = addr.Port
	copy(sa.Addr[:], addr.IP.To16())
	return &sa, nil
}

// CheckConnected implements spec.md §4.3's connect-completion detection: a
// zero-length MSG_PEEK on the socket. ENOTCONN means the connect is still
// in flight; success or EAGAIN (connected with nothing to read yet) means
// the connect completed; any other error means the connect failed.
func CheckConnected(fd int) (connected bool, failed bool) {
	_, _, err := unix.Recvfrom(fd, nil, unix.MSG_PEEK)
	switch err {
	case unix.ENOTCONN:
		return false, false
	case nil, unix.EAGAIN:
		return true, false
	default:
		return false, true
	}
}

// ReadNonblocking performs a single non-blocking read. wouldBlock is true
// when the kernel has no data ready; this is not an error condition.
func ReadNonblocking(fd int, buf []byte) (n int, wouldBlock bool, err error) {
	n, err = unix.Read(fd, buf)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, true, nil
	}
	return n, false, err
}

// WriteNonblocking performs a single non-blocking write attempt of buf.
// A short write or EAGAIN is reported via n/wouldBlock rather than
// treated as success; the caller (Pair.Pump) is responsible for queuing
// whatever was not written.
func WriteNonblocking(fd int, buf []byte) (n int, wouldBlock bool, err error) {
	n, err = unix.Write(fd, buf)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		return 0, true, nil
	}
	return n, false, err
}

// PeekReadable inspects a socket's receive queue without consuming it, so
// the engine can tell "client has data waiting" from "client closed
// before sending anything" ahead of choosing an upstream (spec.md §4.3:
// idle -> connecting happens on the next readiness event, not eagerly).
// The byte, if any, remains queued for the first real read.
func PeekReadable(fd int) (hasData bool, eof bool, err error) {
	var b [1]byte
	n, _, rerr := unix.Recvfrom(fd, b[:], unix.MSG_PEEK)
	switch rerr {
	case nil:
		if n == 0 {
			return false, true, nil
		}
		return true, false, nil
	case unix.EAGAIN, unix.EWOULDBLOCK:
		return false, false, nil
	default:
		return false, false, rerr
	}
}

// ShutdownClose half-closes both directions, then closes fd. Errors from
// Shutdown are ignored: the peer may have already gone away.
func ShutdownClose(fd int) {
	_ = unix.Shutdown(fd, unix.SHUT_RDWR)
	_ = unix.Close(fd)
}

// shutdownWrite half-closes only the write direction of fd.
func shutdownWrite(fd int) {
	_ = unix.Shutdown(fd, unix.SHUT_WR)
}

// DupFD duplicates fd, returning an independent descriptor with the
// CLOEXEC flag set and the non-blocking status flag inherited (status
// flags live on the open file description, which dup shares).
func DupFD(fd int) (int, error) {
	return unix.FcntlInt(uintptr(fd), unix.F_DUPFD_CLOEXEC, 0)
}

// FDFromConn extracts the raw file descriptor backing a *net.TCPConn,
// duplicating it so the returned fd outlives Close on conn. The caller
// owns the returned fd and must close it independently.
func FDFromConn(c *net.TCPConn) (int, error) {
	raw, err := c.SyscallConn()
	if err != nil {
		return -1, err
	}

	var (
		dupFD int
		dupErr error
	)
	ctrlErr := raw.Control(func(fd uintptr) {
		dupFD, dupErr = DupFD(int(fd))
	})
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	if dupErr != nil {
		return -1, dupErr
	}

	return dupFD, nil
}
