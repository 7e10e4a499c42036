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

package errors

// CodeError is a numeric classification for errors raised by the proxy,
// in the spirit of HTTP status codes but scoped to this process.
type CodeError uint16

const (
	// UnknownError is the zero value, used when a caller wraps a plain error
	// without picking a more specific code.
	UnknownError CodeError = iota

	// HostFileMissing: the host list file does not exist or could not be opened.
	HostFileMissing

	// HostRegistryEmpty: a Registry was constructed with no hosts.
	HostRegistryEmpty

	// ListenerBindFailed: the TCP listener failed to bind its port.
	ListenerBindFailed

	// ConnectFailed: a non-blocking connect to an upstream failed or timed out.
	ConnectFailed

	// ForwardFailed: a read or write on an established pair failed.
	ForwardFailed

	// PollerFailed: the readiness poller reported an unrecoverable error.
	PollerFailed

	// ConfigInvalid: configuration failed validation before startup.
	ConfigInvalid
)

var codeMessage = map[CodeError]string{
	UnknownError:       "unknown error",
	HostFileMissing:    "host file missing or unreadable",
	HostRegistryEmpty:  "host registry has no hosts",
	ListenerBindFailed: "listener failed to bind",
	ConnectFailed:      "upstream connect failed",
	ForwardFailed:      "forwarding I/O failed",
	PollerFailed:       "readiness poller failed",
	ConfigInvalid:      "configuration invalid",
}

// String renders the human-readable message registered for this code,
// falling back to UnknownError's message for unregistered codes.
func (c CodeError) String() string {
	if m, ok := codeMessage[c]; ok {
		return m
	}

	return codeMessage[UnknownError]
}
