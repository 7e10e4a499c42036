/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package errors provides coded, traceable errors for gobalance.
//
// It is a trimmed adaptation of github.com/nabbar/golib/errors scoped to a
// single process with no HTTP surface: numeric codes, call-site capture,
// and single-level parent chaining, compatible with the standard errors
// package via Is/Unwrap.
package errors

import (
	"fmt"
	"runtime"
)

// Error is a coded error carrying its call site and an optional parent.
type Error interface {
	error
	Code() CodeError
	IsCode(code CodeError) bool
	Parent() error
	Unwrap() error
}

type codedError struct {
	code   CodeError
	msg    string
	parent error
	file   string
	line   int
}

// New returns an Error with the given code, message and optional parent,
// capturing the caller's file and line.
func New(code CodeError, msg string, parent error) Error {
	_, file, line, _ := runtime.Caller(1)

	return &codedError{
		code:   code,
		msg:    msg,
		parent: parent,
		file:   file,
		line:   line,
	}
}

// Wrap returns an Error with the given code that wraps err, using err's own
// message unless msg is non-empty.
func Wrap(code CodeError, msg string, err error) Error {
	_, file, line, _ := runtime.Caller(1)

	if msg == "" && err != nil {
		msg = err.Error()
	}

	return &codedError{
		code:   code,
		msg:    msg,
		parent: err,
		file:   file,
		line:   line,
	}
}

func (e *codedError) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("%s: %s (%s:%d): %s", e.code, e.msg, e.file, e.line, e.parent.Error())
	}

	return fmt.Sprintf("%s: %s (%s:%d)", e.code, e.msg, e.file, e.line)
}

func (e *codedError) Code() CodeError { return e.code }

func (e *codedError) IsCode(code CodeError) bool { return e.code == code }

func (e *codedError) Parent() error { return e.parent }

func (e *codedError) Unwrap() error { return e.parent }
