/***********************************************************************************************************************
 *
 *   MIT License
 *
 *   Copyright (c) 2021 Nicolas JUHEL
 *
 *   Permission is hereby granted, free of charge, to any person obtaining a copy
 *   of this software and associated documentation files (the "Software"), to deal
 *   in the Software without restriction, including without limitation the rights
 *   to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 *   copies of the Software, and to permit persons to whom the Software is
 *   furnished to do so, subject to the following conditions:
 *
 *   The above copyright notice and this permission notice shall be included in all
 *   copies or substantial portions of the Software.
 *
 *   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 *   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 *   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 *   AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 *   LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 *   OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 *   SOFTWARE.
 *
 *
 **********************************************************************************************************************/

package logger

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type lgr struct {
	mu     sync.RWMutex
	lvl    atomic.Uint32
	entry  *logrus.Entry
	fields Fields
}

// Options configures New.
type Options struct {
	Level  Level
	Format string // "text" or "json"
	Color  bool
	Output io.Writer // defaults to os.Stderr
}

// New builds a Logger backed by logrus, matching the teacher's single
// construction entry point (nabbar/golib/logger.New) but without the
// teacher's multi-hook (file/syslog/gorm) manager, which this proxy has no
// use for.
func New(opt Options) Logger {
	out := opt.Output
	if out == nil {
		out = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(out)

	if opt.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:   !opt.Color,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	g := &lgr{entry: logrus.NewEntry(l)}
	g.SetLevel(opt.Level)

	return g
}

func (g *lgr) SetLevel(lvl Level) {
	g.lvl.Store(uint32(lvl))

	g.mu.Lock()
	defer g.mu.Unlock()
	g.entry.Logger.SetLevel(lvl.Logrus())
}

func (g *lgr) GetLevel() Level {
	return Level(g.lvl.Load())
}

func (g *lgr) With(flds Fields) Logger {
	merged := make(Fields, len(g.fields)+len(flds))
	for k, v := range g.fields {
		merged[k] = v
	}
	for k, v := range flds {
		merged[k] = v
	}

	g.mu.RLock()
	e := g.entry
	g.mu.RUnlock()

	n := &lgr{entry: e.WithFields(logrus.Fields(merged)), fields: merged}
	n.lvl.Store(g.lvl.Load())

	return n
}

func (g *lgr) entryWith(flds Fields) *logrus.Entry {
	g.mu.RLock()
	e := g.entry
	g.mu.RUnlock()

	if len(flds) == 0 {
		return e
	}

	return e.WithFields(logrus.Fields(flds))
}

func (g *lgr) Debug(msg string, flds Fields)   { g.entryWith(flds).Debug(msg) }
func (g *lgr) Info(msg string, flds Fields)    { g.entryWith(flds).Info(msg) }
func (g *lgr) Warning(msg string, flds Fields) { g.entryWith(flds).Warn(msg) }
func (g *lgr) Error(msg string, flds Fields)   { g.entryWith(flds).Error(msg) }
