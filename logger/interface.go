/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package logger provides structured logging for gobalance, adapted from
// github.com/nabbar/golib/logger and trimmed to a single sink (stderr/file)
// with a fields-based API instead of the teacher's multi-hook manager.
package logger

// Fields is a shallow set of structured attributes attached to a log entry.
// Keys used across this repository include worker, target, host, client,
// error and run_id. Never carries connection payload bytes.
type Fields map[string]interface{}

// Logger is the structured logging interface used throughout gobalance.
type Logger interface {
	SetLevel(lvl Level)
	GetLevel() Level

	Debug(msg string, flds Fields)
	Info(msg string, flds Fields)
	Warning(msg string, flds Fields)
	Error(msg string, flds Fields)

	// With returns a Logger that merges flds into every subsequent entry.
	With(flds Fields) Logger
}
