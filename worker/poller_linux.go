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

//go:build linux

package worker

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// epollPoller grounds spec.md §4.6's Linux readiness backend on
// epoll_create1/epoll_ctl/epoll_wait. The kernel's epoll_event carries
// only a 32-bit fd in its user-data union as exposed by x/sys/unix, so
// the PairID association is kept in a side table keyed by fd.
type epollPoller struct {
	epfd int

	mu   sync.Mutex
	ids  map[int32]PairID
}

// NewPoller returns the platform readiness backend.
func NewPoller() (Poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: fd, ids: make(map[int32]PairID)}, nil
}

func interestToEpoll(i Interest) uint32 {
	var ev uint32
	if i&Readable != 0 {
		ev |= unix.EPOLLIN
	}
	if i&Writable != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (p *epollPoller) Register(fd int, id PairID, interest Interest) error {
	p.mu.Lock()
	p.ids[int32(fd)] = id
	p.mu.Unlock()

	ev := &unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (p *epollPoller) Modify(fd int, id PairID, interest Interest) error {
	p.mu.Lock()
	p.ids[int32(fd)] = id
	p.mu.Unlock()

	ev := &unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollPoller) Deregister(fd int) error {
	p.mu.Lock()
	delete(p.ids, int32(fd))
	p.mu.Unlock()

	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *epollPoller) Wait(timeout time.Duration) ([]Event, error) {
	raw := make([]unix.EpollEvent, 256)

	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}

	n, err := unix.EpollWait(p.epfd, raw, ms)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, n)
	p.mu.Lock()
	for i := 0; i < n; i++ {
		id, ok := p.ids[raw[i].Fd]
		if !ok {
			continue
		}
		mask := raw[i].Events
		out = append(out, Event{
			ID:       id,
			FD:       int(raw[i].Fd),
			Readable: mask&(unix.EPOLLIN|unix.EPOLLHUP) != 0,
			Writable: mask&unix.EPOLLOUT != 0,
			Err:      mask&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
		})
	}
	p.mu.Unlock()

	return out, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
