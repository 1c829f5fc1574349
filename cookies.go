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
	"net/http"
	"sync"
	"time"
)

// CookieJar is the per-request cookie view: the cookies the client sent,
// plus a delta of pending mutations that finalization emits as
// Set-Cookie headers.
//
// The delta is discarded when a handler fails or forwards, so cookies
// set by an abandoned handler never leak into the catcher's response.
type CookieJar struct {
	mu        sync.Mutex
	originals []*http.Cookie
	pending   []*http.Cookie
}

// newCookieJar snapshots the request's cookies.
func newCookieJar(req *http.Request) *CookieJar {
	return &CookieJar{originals: req.Cookies()}
}

// Get returns the named cookie. Pending mutations win over the cookies
// the client sent.
func (j *CookieJar) Get(name string) (*http.Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.pending) - 1; i >= 0; i-- {
		if j.pending[i].Name == name {
			if j.pending[i].MaxAge < 0 {
				return nil, false
			}
			return j.pending[i], true
		}
	}
	for _, c := range j.originals {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Add queues a Set-Cookie for the response.
func (j *CookieJar) Add(c *http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending = append(j.pending, c)
}

// Remove queues a removal Set-Cookie for the named cookie.
func (j *CookieJar) Remove(name string) {
	j.Add(&http.Cookie{
		Name:    name,
		MaxAge:  -1,
		Expires: time.Unix(0, 0),
		Path:    "/",
	})
}

// Pending returns the queued Set-Cookie delta.
func (j *CookieJar) Pending() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*http.Cookie, len(j.pending))
	copy(out, j.pending)
	return out
}

// ResetDelta discards every queued mutation. The lifecycle calls this
// before catcher dispatch.
func (j *CookieJar) ResetDelta() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending = nil
}
