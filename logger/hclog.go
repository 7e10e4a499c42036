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
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
)

// asHCLog adapts a Logger to hclog.Logger so components that accept the
// hashicorp logging interface (e.g. test doubles shared with other
// hashicorp-ecosystem tooling) can be driven by gobalance's own logger.
type asHCLog struct {
	l    Logger
	name string
}

// AsHCLog wraps l as an hclog.Logger.
func AsHCLog(l Logger, name string) hclog.Logger {
	return &asHCLog{l: l, name: name}
}

func (h *asHCLog) Log(level hclog.Level, msg string, args ...interface{}) {
	flds := argsToFields(args)

	switch level {
	case hclog.Off, hclog.NoLevel:
		return
	case hclog.Trace, hclog.Debug:
		h.l.Debug(msg, flds)
	case hclog.Info:
		h.l.Info(msg, flds)
	case hclog.Warn:
		h.l.Warning(msg, flds)
	case hclog.Error:
		h.l.Error(msg, flds)
	}
}

func argsToFields(args []interface{}) Fields {
	if len(args) == 0 {
		return nil
	}

	flds := make(Fields, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		flds[key] = args[i+1]
	}

	return flds
}

func (h *asHCLog) Trace(msg string, args ...interface{}) { h.Log(hclog.Trace, msg, args...) }
func (h *asHCLog) Debug(msg string, args ...interface{}) { h.Log(hclog.Debug, msg, args...) }
func (h *asHCLog) Info(msg string, args ...interface{})  { h.Log(hclog.Info, msg, args...) }
func (h *asHCLog) Warn(msg string, args ...interface{})  { h.Log(hclog.Warn, msg, args...) }
func (h *asHCLog) Error(msg string, args ...interface{}) { h.Log(hclog.Error, msg, args...) }

func (h *asHCLog) IsTrace() bool { return h.l.GetLevel() == DebugLevel }
func (h *asHCLog) IsDebug() bool { return h.l.GetLevel() >= DebugLevel }
func (h *asHCLog) IsInfo() bool  { return h.l.GetLevel() >= InfoLevel }
func (h *asHCLog) IsWarn() bool  { return h.l.GetLevel() >= WarnLevel }
func (h *asHCLog) IsError() bool { return true }

func (h *asHCLog) ImpliedArgs() []interface{} { return nil }

func (h *asHCLog) With(args ...interface{}) hclog.Logger {
	return &asHCLog{l: h.l.With(argsToFields(args)), name: h.name}
}

func (h *asHCLog) Name() string { return h.name }

func (h *asHCLog) Named(name string) hclog.Logger {
	n := name
	if h.name != "" {
		n = h.name + "." + name
	}
	return &asHCLog{l: h.l, name: n}
}

func (h *asHCLog) ResetNamed(name string) hclog.Logger {
	return &asHCLog{l: h.l, name: name}
}

func (h *asHCLog) SetLevel(level hclog.Level) {}

func (h *asHCLog) GetLevel() hclog.Level { return hclog.Info }

func (h *asHCLog) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(h.StandardWriter(opts), "", 0)
}

func (h *asHCLog) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return os.Stderr
}
