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
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"

	"rivaas.dev/dispatch/media"
)

// Response is a handler's reply: status, headers, a body that either has
// a known size or streams chunked, and an optional protocol-upgrade
// handler.
type Response struct {
	status  int
	header  http.Header
	body    io.Reader
	size    int64 // -1 for chunked bodies
	upgrade UpgradeFunc
}

// UpgradeFunc serves a hijacked connection after a protocol upgrade
// response has been written.
type UpgradeFunc func(conn net.Conn, rw *bufio.ReadWriter)

// NewResponse returns an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{
		status: status,
		header: make(http.Header),
		size:   0,
	}
}

// Text returns a text/plain response with a sized body.
func Text(status int, body string) *Response {
	r := NewResponse(status)
	r.SetContentType(media.Plain)
	r.SetBodyBytes([]byte(body))
	return r
}

// JSONResponse marshals v as an application/json response. Marshal
// failures turn into a 500 with an empty body.
func JSONResponse(status int, v any) *Response {
	r := NewResponse(status)
	data, err := json.Marshal(v)
	if err != nil {
		r.status = http.StatusInternalServerError
		return r
	}
	r.SetContentType(media.JSON)
	r.SetBodyBytes(data)
	return r
}

// HTMLResponse returns a text/html response.
func HTMLResponse(status int, body string) *Response {
	r := NewResponse(status)
	r.SetContentType(media.HTML)
	r.SetBodyBytes([]byte(body))
	return r
}

// Status returns the response status code.
func (r *Response) Status() int { return r.status }

// SetStatus overrides the status code.
func (r *Response) SetStatus(status int) { r.status = status }

// Header returns the mutable header map.
func (r *Response) Header() http.Header { return r.header }

// SetContentType sets the Content-Type header.
func (r *Response) SetContentType(t media.Type) {
	r.header.Set("Content-Type", t.String())
}

// SetBodyBytes installs a sized body.
func (r *Response) SetBodyBytes(body []byte) {
	r.body = bytes.NewReader(body)
	r.size = int64(len(body))
}

// SetBodyReader installs a body stream. A negative size means the length
// is unknown and the body is sent chunked.
func (r *Response) SetBodyReader(body io.Reader, size int64) {
	r.body = body
	r.size = size
}

// Body returns the body reader, or nil for an empty body.
func (r *Response) Body() io.Reader { return r.body }

// Size returns the body size, or -1 when streaming chunked.
func (r *Response) Size() int64 { return r.size }

// StripBody drops the body while keeping headers and size metadata, for
// HEAD responses.
func (r *Response) StripBody() {
	if r.size > 0 {
		r.header.Set("Content-Length", strconv.FormatInt(r.size, 10))
	}
	r.body = nil
	r.size = 0
}

// SetUpgrade attaches a protocol-upgrade handler invoked after the
// response headers are written.
func (r *Response) SetUpgrade(fn UpgradeFunc) { r.upgrade = fn }

// Upgrade returns the attached upgrade handler, or nil.
func (r *Response) Upgrade() UpgradeFunc { return r.upgrade }

// write emits the response to w. When stripBody is set (HEAD), headers
// are sent but the body is withheld.
func (r *Response) write(w http.ResponseWriter, stripBody bool) error {
	for key, values := range r.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if r.size >= 0 && !stripBody {
		w.Header().Set("Content-Length", strconv.FormatInt(r.size, 10))
	}
	w.WriteHeader(r.status)

	if stripBody || r.body == nil {
		return nil
	}
	_, err := io.Copy(w, r.body)
	return err
}
