// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"bufio"
	"io"
	"net/http"

	"rivaas.dev/dispatch/config"
)

// peekWindow is the largest prefix preprocessing inspects without
// consuming the stream: len("_method=") + len("DELETE").
const peekWindow = 14

// Data is the request body stream handed to data guards. It buffers the
// front of the stream so preprocessing can peek at it and a forwarding
// guard leaves an equivalent stream for the next route candidate. At
// most one data guard per route may consume it.
type Data struct {
	reader   *bufio.Reader
	limits   config.Limits
	consumed bool
}

// newData wraps a request body with the configured limits.
func newData(body io.Reader, limits config.Limits) *Data {
	if body == nil {
		body = http.NoBody
	}
	return &Data{
		reader: bufio.NewReaderSize(body, 512),
		limits: limits,
	}
}

// Peek returns up to n leading bytes without consuming them.
func (d *Data) Peek(n int) []byte {
	if d.consumed {
		return nil
	}
	peeked, _ := d.reader.Peek(n)
	return peeked
}

// Consumed reports whether a data guard has opened the stream.
func (d *Data) Consumed() bool { return d.consumed }

// Open marks the stream consumed and returns a reader capped one byte
// past the limit for the given kind, so callers can detect overrun.
func (d *Data) Open(kind string) io.Reader {
	d.consumed = true
	limit := int64(d.limits.Get(kind))
	return io.LimitReader(d.reader, limit+1)
}

// ReadAll consumes the stream under the limit for kind. Exceeding the
// limit returns a 413 StatusError; the stream is consumed either way.
func (d *Data) ReadAll(kind string) ([]byte, error) {
	limit := int64(d.limits.Get(kind))
	body, err := io.ReadAll(d.Open(kind))
	if err != nil {
		return nil, NewStatusError(http.StatusBadRequest, err)
	}
	if int64(len(body)) > limit {
		return nil, NewStatusError(http.StatusRequestEntityTooLarge, ErrPayloadTooLarge)
	}
	return body, nil
}
