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

	jww "github.com/spf13/jwalterweatherman"
)

// writer adapts Logger to io.Writer so it can receive jww's plain-text
// log lines.
type writer struct {
	l   Logger
	lvl Level
}

func (w writer) Write(p []byte) (int, error) {
	msg := string(p)
	switch w.lvl {
	case ErrorLevel:
		w.l.Error(msg, nil)
	case WarnLevel:
		w.l.Warning(msg, nil)
	case DebugLevel:
		w.l.Debug(msg, nil)
	default:
		w.l.Info(msg, nil)
	}
	return len(p), nil
}

// CaptureStdLog redirects jwalterweatherman's log output into l at info
// level and discards its stdout output. The standard library's log
// package is not redirected. Used only by cmd/gobalance, once flags are
// parsed and the structured logger has been built.
func CaptureStdLog(l Logger) {
	jww.SetLogOutput(writer{l: l, lvl: InfoLevel})
	jww.SetStdoutOutput(io.Discard)
	jww.SetLogThreshold(jww.LevelInfo)
	jww.SetStdoutThreshold(jww.LevelCritical)
}
