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
	"fmt"
	"net/http"

	"rivaas.dev/dispatch/media"
	"rivaas.dev/dispatch/uri"
)

// CatcherFunc handles an error status for a request. A failing catcher
// returns an error; the lifecycle then retries with the 500 catcher and
// finally the built-in default.
type CatcherFunc func(status int, req *Request) (*Response, error)

// Catcher handles error statuses beneath a base path. A Catcher with
// code 0 is a default catcher: it handles any status its base covers.
type Catcher struct {
	code    int
	base    uri.Origin
	handler CatcherFunc
}

// NewCatcher builds a catcher for one status code. Use code 0 for a
// default catcher.
func NewCatcher(code int, handler CatcherFunc) *Catcher {
	return &Catcher{code: code, base: uri.Root, handler: handler}
}

// DefaultCatcher builds a catcher handling every status.
func DefaultCatcher(handler CatcherFunc) *Catcher {
	return NewCatcher(0, handler)
}

// Code returns the status the catcher handles; 0 means any.
func (c *Catcher) Code() int { return c.code }

// Base returns the normalized base path the catcher covers.
func (c *Catcher) Base() uri.Origin { return c.base }

// withBase returns a copy of the catcher scoped beneath base. Catcher
// bases never carry a query.
func (c *Catcher) withBase(base uri.Origin) (*Catcher, error) {
	if base.HasQuery() {
		return nil, fmt.Errorf("%w: catcher base %q has a query", ErrInvalidPattern, base.String())
	}
	clone := *c
	clone.base = base.Normalize()
	return &clone, nil
}

// Matches reports whether the catcher handles the given status for the
// request: the code agrees (or the catcher is a default) and the base is
// a segment prefix of the request path.
func (c *Catcher) Matches(status int, req *Request) bool {
	if c.code != 0 && c.code != status {
		return false
	}
	return c.base.PrefixOf(req.URI())
}

// Collides reports whether two catchers are ambiguous: same code (or
// both default) and the same normalized base.
func (c *Catcher) Collides(other *Catcher) bool {
	return c.code == other.code && c.base.String() == other.base.String()
}

// String describes the catcher for logs and collision reports.
func (c *Catcher) String() string {
	if c.code == 0 {
		return fmt.Sprintf("default (%s)", c.base.String())
	}
	return fmt.Sprintf("%d (%s)", c.code, c.base.String())
}

// defaultErrorBody is the built-in catcher's HTML shell.
const defaultErrorBody = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>%d %s</title></head>
<body align="center">
<div align="center">
<h1>%d: %s</h1>
<p>%s</p>
</div>
</body>
</html>
`

// defaultCatcherDescriptions supplements common statuses with a line of
// context, as the built-in error pages show.
var defaultCatcherDescriptions = map[int]string{
	http.StatusBadRequest:            "The request could not be understood by the server.",
	http.StatusNotFound:              "The requested resource could not be found.",
	http.StatusUnprocessableEntity:   "The request was well-formed but could not be processed.",
	http.StatusRequestEntityTooLarge: "The request payload is larger than the configured limit.",
	http.StatusInternalServerError:   "The server encountered an internal error.",
}

// builtinCatcher renders the fallback error response: JSON when the
// client prefers it, a minimal HTML page otherwise.
func builtinCatcher(status int, req *Request) *Response {
	reason := http.StatusText(status)
	if reason == "" {
		reason = "Unknown Error"
	}
	description := defaultCatcherDescriptions[status]

	preferred := media.Preferred(req.Header("Accept"), media.HTML, media.JSON)
	if preferred.Exact(media.JSON) {
		return JSONResponse(status, map[string]any{
			"error": map[string]any{
				"code":        status,
				"reason":      reason,
				"description": description,
			},
		})
	}

	body := fmt.Sprintf(defaultErrorBody, status, reason, status, reason, description)
	resp := HTMLResponse(status, body)
	resp.SetStatus(status)
	return resp
}
