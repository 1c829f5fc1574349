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
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"rivaas.dev/dispatch/media"
	"rivaas.dev/dispatch/uri"
)

// Request is the core's view of one HTTP message: method, normalized
// URI, headers, cookies, peer info, the matched route, and a type-keyed
// local cache for guard memoization.
//
// The method may be rewritten exactly once by preprocessing (the
// "_method" form override) before routing begins.
type Request struct {
	http   *http.Request
	method string
	uri    uri.Origin
	jar    *CookieJar
	logger *slog.Logger
	server *Server

	route    *Route
	params   map[string]string
	trailing map[string]string

	localsMu sync.Mutex
	locals   map[any]any

	overridden bool
}

// newRequest builds a Request from a parsed HTTP message. The request
// target must parse as an origin; the normalized form is stored.
func newRequest(hr *http.Request, srv *Server) (*Request, error) {
	origin, err := uri.ParseOrigin(hr.URL.RequestURI())
	if err != nil {
		return nil, err
	}
	logger := noopLogger
	if srv != nil {
		logger = srv.logger
	}
	return &Request{
		http:   hr,
		method: hr.Method,
		uri:    origin.Normalize(),
		jar:    newCookieJar(hr),
		logger: logger,
		server: srv,
		locals: make(map[any]any),
	}, nil
}

// Method returns the effective HTTP method, method override applied.
func (r *Request) Method() string { return r.method }

// URI returns the normalized request origin.
func (r *Request) URI() uri.Origin { return r.uri }

// Header returns the first value of the named header.
func (r *Request) Header(name string) string { return r.http.Header.Get(name) }

// Headers returns the full header map.
func (r *Request) Headers() http.Header { return r.http.Header }

// Cookies returns the request's cookie jar.
func (r *Request) Cookies() *CookieJar { return r.jar }

// Remote returns the peer address.
func (r *Request) Remote() string { return r.http.RemoteAddr }

// Context returns the request's context.
func (r *Request) Context() context.Context { return r.http.Context() }

// Logger returns the request-scoped logger. Before routing it is the
// server's base logger; the lifecycle rebinds it with route attributes
// once a route matches.
func (r *Request) Logger() *slog.Logger { return r.logger }

// Route returns the currently matched route, or nil before matching.
func (r *Request) Route() *Route { return r.route }

// Server returns the server handling this request, or nil for requests
// constructed outside a server (local testing).
func (r *Request) Server() *Server { return r.server }

// ContentType returns the parsed Content-Type, or the zero Type.
func (r *Request) ContentType() media.Type {
	raw := r.http.Header.Get("Content-Type")
	if raw == "" {
		return media.Type{}
	}
	t, err := media.Parse(raw)
	if err != nil {
		return media.Type{}
	}
	return t
}

// Accepts reports whether the request's Accept header admits t.
func (r *Request) Accepts(t media.Type) bool {
	return media.Accepts(r.http.Header.Get("Accept"), t)
}

// setMethod rewrites the method once during preprocessing.
func (r *Request) setMethod(method string) bool {
	if r.overridden {
		return false
	}
	r.method = method
	r.overridden = true
	return true
}

// setRoute installs the matched route and its captured parameters.
func (r *Request) setRoute(route *Route, params, trailing map[string]string) {
	r.route = route
	r.params = params
	r.trailing = trailing
}

// Param returns the decoded value of a dynamic path parameter, or "".
func (r *Request) Param(name string) string {
	return r.params[name]
}

// ParamInt parses a path parameter as an int.
// Returns an error if the parameter is missing or cannot be parsed.
func (r *Request) ParamInt(name string) (int, error) {
	s := r.Param(name)
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}
	return val, nil
}

// ParamInt64 parses a path parameter as an int64.
func (r *Request) ParamInt64(name string) (int64, error) {
	s := r.Param(name)
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}
	return val, nil
}

// ParamUint64 parses a path parameter as a uint64.
func (r *Request) ParamUint64(name string) (uint64, error) {
	s := r.Param(name)
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	val, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}
	return val, nil
}

// ParamFloat64 parses a path parameter as a float64.
func (r *Request) ParamFloat64(name string) (float64, error) {
	s := r.Param(name)
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}
	return val, nil
}

// ParamBool parses a path parameter as a bool.
func (r *Request) ParamBool(name string) (bool, error) {
	s := r.Param(name)
	if s == "" {
		return false, fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: %s (%w)", ErrParamInvalid, name, err)
	}
	return val, nil
}

// Segments returns the raw segments captured by a trailing parameter.
func (r *Request) Segments(name string) []string {
	raw, ok := r.trailing[name]
	if !ok || raw == "" {
		return nil
	}
	return strings.Split(raw, "/")
}

// TrailingPath returns the raw (not percent-decoded) joined path
// captured by a trailing parameter, e.g. "one/two/three".
func (r *Request) TrailingPath(name string) string {
	return r.trailing[name]
}

// FileSegments resolves a trailing parameter into a path safe to join
// beneath a file root: segments starting with '.' or '*' are rejected,
// as is anything that would escape the root after cleaning.
func (r *Request) FileSegments(name string) (string, error) {
	segments := r.Segments(name)
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: %s", ErrParamMissing, name)
	}
	for _, seg := range segments {
		if strings.HasPrefix(seg, ".") || strings.HasPrefix(seg, "*") {
			return "", fmt.Errorf("%w: segment %q", ErrUnsafeSegments, seg)
		}
	}
	joined := path.Clean(strings.Join(segments, "/"))
	if joined == ".." || strings.HasPrefix(joined, "../") || path.IsAbs(joined) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeSegments, joined)
	}
	return joined, nil
}

// queryValuesKey is the local-cache key for the decoded query map.
type queryValuesKey struct{}

// QueryValues returns the decoded query fields as url.Values, memoized
// in the request's local cache.
func (r *Request) QueryValues() url.Values {
	return Local(r, queryValuesKey{}, func() url.Values {
		values := make(url.Values)
		for name, value := range r.uri.QueryFields() {
			decodedName, err := uri.DecodeQueryComponent(name)
			if err != nil {
				continue
			}
			decodedValue, err := uri.DecodeQueryComponent(value)
			if err != nil {
				continue
			}
			values.Add(decodedName, decodedValue)
		}
		return values
	})
}

// Query returns the first decoded value of the named query field.
func (r *Request) Query(name string) (string, bool) {
	values, ok := r.QueryValues()[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Local memoizes a value in the request's type-keyed local cache. The
// first call for a key runs build and stores the result; later calls
// return the stored value. Guards use it to hand out references backed
// by request-owned storage.
func Local[T any](r *Request, key any, build func() T) T {
	r.localsMu.Lock()
	if cached, ok := r.locals[key]; ok {
		r.localsMu.Unlock()
		return cached.(T)
	}
	r.localsMu.Unlock()

	// Build outside the lock: builders may themselves use the cache.
	value := build()

	r.localsMu.Lock()
	defer r.localsMu.Unlock()
	if cached, ok := r.locals[key]; ok {
		return cached.(T)
	}
	r.locals[key] = value
	return value
}
