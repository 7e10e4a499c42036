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

//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package worker

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// kqueuePoller grounds spec.md §4.6's BSD/Darwin readiness backend on
// kqueue/kevent, following the same fd-keyed registration and per-event
// filter split (EVFILT_READ / EVFILT_WRITE) used by the kqueue poller in
// the retrieval pack's async-runtime example.
type kqueuePoller struct {
	kq int

	mu  sync.Mutex
	ids map[int]PairID
}

// NewPoller returns the platform readiness backend.
func NewPoller() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	return &kqueuePoller{kq: kq, ids: make(map[int]PairID)}, nil
}

func (p *kqueuePoller) Register(fd int, id PairID, interest Interest) error {
	p.mu.Lock()
	p.ids[fd] = id
	p.mu.Unlock()
	return p.apply(fd, interest, unix.EV_ADD|unix.EV_CLEAR)
}

func (p *kqueuePoller) Modify(fd int, id PairID, interest Interest) error {
	p.mu.Lock()
	p.ids[fd] = id
	p.mu.Unlock()
	return p.apply(fd, interest, unix.EV_ADD|unix.EV_CLEAR)
}

func (p *kqueuePoller) apply(fd int, interest Interest, flags uint16) error {
	changes := make([]unix.Kevent_t, 0, 2)

	readFlags := flags
	if interest&Readable == 0 {
		readFlags = unix.EV_DELETE
	}
	changes = append(changes, unix.Kevent_t{
		Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: readFlags,
	})

	writeFlags := flags
	if interest&Writable == 0 {
		writeFlags = unix.EV_DELETE
	}
	changes = append(changes, unix.Kevent_t{
		Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: writeFlags,
	})

	_, err := unix.Kevent(p.kq, changes, nil, nil)
	// Deleting a filter that was never added is not an error we care
	// about; the registration state we actually track is p.ids.
	if err == unix.ENOENT {
		return nil
	}
	return err
}

func (p *kqueuePoller) Deregister(fd int) error {
	p.mu.Lock()
	delete(p.ids, fd)
	p.mu.Unlock()

	changes := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (p *kqueuePoller) Wait(timeout time.Duration) ([]Event, error) {
	raw := make([]unix.Kevent_t, 256)
	ts := unix.NsecToTimespec(timeout.Nanoseconds())

	n, err := unix.Kevent(p.kq, nil, raw, &ts)
	if err == unix.EINTR {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	merged := make(map[int]*Event, n)

	p.mu.Lock()
	for i := 0; i < n; i++ {
		fd := int(raw[i].Ident)
		id, ok := p.ids[fd]
		if !ok {
			continue
		}
		e, ok := merged[fd]
		if !ok {
			e = &Event{ID: id, FD: fd}
			merged[fd] = e
		}
		switch raw[i].Filter {
		case unix.EVFILT_READ:
			e.Readable = true
		case unix.EVFILT_WRITE:
			e.Writable = true
		}
		if raw[i].Flags&unix.EV_EOF != 0 {
			if raw[i].Fflags != 0 {
				e.Err = true
			} else {
				e.Readable = true
			}
		}
	}
	p.mu.Unlock()

	out := make([]Event, 0, len(merged))
	for _, e := range merged {
		out = append(out, *e)
	}
	return out, nil
}

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}
