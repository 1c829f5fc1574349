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
	"strings"

	"rivaas.dev/dispatch/media"
	"rivaas.dev/dispatch/uri"
)

// MethodAny is the wildcard method: such a route is considered for every
// request method, after method-specific routes of lower rank.
const MethodAny = "*"

// HandlerFunc is a route endpoint. It receives the matched request and
// the body stream and returns the tri-state Outcome.
type HandlerFunc func(r *Request, d *Data) Outcome

// Route pairs a pattern with a handler and the metadata the router
// matches on: method, rank, format, guards, and sentinels.
//
// Routes use a fluent interface for metadata:
//
//	route := dispatch.MustRoute("GET", "/users/<id>", getUser).
//	    Named("user.show").
//	    Format("json").
//	    Rank(2)
type Route struct {
	name    string
	method  string
	pattern *uri.Pattern
	rank    int
	rankSet bool
	format  media.Type

	guards    []RequestGuard
	sentinels []Sentinel
	handler   HandlerFunc
}

// knownMethods are the methods accepted by NewRoute, plus MethodAny.
var knownMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true, http.MethodConnect: true, http.MethodTrace: true,
	MethodAny: true,
}

// NewRoute builds a route from a method, a pattern string, and a
// handler. The pattern is parsed and classified once, here; the matcher
// consumes the classified segments.
func NewRoute(method, pattern string, handler HandlerFunc) (*Route, error) {
	method = strings.ToUpper(method)
	if !knownMethods[method] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}
	parsed, err := uri.ParsePattern(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidPattern, pattern, err)
	}
	return &Route{
		method:  method,
		pattern: parsed,
		rank:    parsed.DefaultRank(),
		handler: handler,
	}, nil
}

// MustRoute is NewRoute that panics on error. Use for routes declared
// with literal patterns.
func MustRoute(method, pattern string, handler HandlerFunc) *Route {
	route, err := NewRoute(method, pattern, handler)
	if err != nil {
		panic("dispatch.MustRoute: " + err.Error())
	}
	return route
}

// Convenience constructors for the common methods.

// Get builds a GET route.
func Get(pattern string, handler HandlerFunc) *Route {
	return MustRoute(http.MethodGet, pattern, handler)
}

// Post builds a POST route.
func Post(pattern string, handler HandlerFunc) *Route {
	return MustRoute(http.MethodPost, pattern, handler)
}

// Put builds a PUT route.
func Put(pattern string, handler HandlerFunc) *Route {
	return MustRoute(http.MethodPut, pattern, handler)
}

// Patch builds a PATCH route.
func Patch(pattern string, handler HandlerFunc) *Route {
	return MustRoute(http.MethodPatch, pattern, handler)
}

// Delete builds a DELETE route.
func Delete(pattern string, handler HandlerFunc) *Route {
	return MustRoute(http.MethodDelete, pattern, handler)
}

// Any builds a wildcard-method route.
func Any(pattern string, handler HandlerFunc) *Route {
	return MustRoute(MethodAny, pattern, handler)
}

// Named sets the route's name, used for reverse routing and logs.
func (r *Route) Named(name string) *Route {
	r.name = name
	return r
}

// Rank overrides the default rank. Lower ranks match first.
func (r *Route) Rank(rank int) *Route {
	r.rank = rank
	r.rankSet = true
	return r
}

// Format declares the route's media type: the Content-Type payload
// requests must carry, or the type non-payload requests must accept.
// Accepts shorthands like "json" as well as full media types.
func (r *Route) Format(format string) *Route {
	r.format = media.MustParse(format)
	return r
}

// Guarded appends request guards, run in order before the handler.
func (r *Route) Guarded(guards ...RequestGuard) *Route {
	r.guards = append(r.guards, guards...)
	return r
}

// Sentineled attaches launch-time sentinels to the route.
func (r *Route) Sentineled(sentinels ...Sentinel) *Route {
	r.sentinels = append(r.sentinels, sentinels...)
	return r
}

// Name returns the route name, falling back to "METHOD pattern".
func (r *Route) Name() string {
	if r.name != "" {
		return r.name
	}
	return r.method + " " + r.pattern.String()
}

// Method returns the route's method, or MethodAny.
func (r *Route) Method() string { return r.method }

// Pattern returns the classified route pattern.
func (r *Route) Pattern() *uri.Pattern { return r.pattern }

// RankValue returns the effective rank.
func (r *Route) RankValue() int { return r.rank }

// FormatValue returns the declared format, or the zero Type.
func (r *Route) FormatValue() media.Type { return r.format }

// withBase returns a copy of the route mounted beneath base.
func (r *Route) withBase(base uri.Origin) (*Route, error) {
	mounted, err := r.pattern.Prefix(base)
	if err != nil {
		return nil, err
	}
	clone := *r
	clone.pattern = mounted
	if !clone.rankSet {
		clone.rank = mounted.DefaultRank()
	}
	return &clone, nil
}

// String describes the route for logs and collision reports.
func (r *Route) String() string {
	var b strings.Builder
	b.WriteString(r.method)
	b.WriteByte(' ')
	b.WriteString(r.pattern.String())
	if !r.format.IsZero() {
		b.WriteString(" [")
		b.WriteString(r.format.String())
		b.WriteByte(']')
	}
	return b.String()
}

// payloadMethods carry a request body whose Content-Type the matcher
// compares against the route format.
var payloadMethods = map[string]bool{
	http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true,
}

// Matches reports whether the request satisfies the route's method,
// path, query, and format. It does not consult guards.
func (r *Route) Matches(req *Request) bool {
	if r.method != MethodAny && r.method != req.Method() {
		return false
	}
	if _, _, ok := r.captureParams(req); !ok {
		return false
	}
	if !r.queryMatches(req) {
		return false
	}
	return r.formatMatches(req)
}

// captureParams walks the request path against the pattern, returning
// the decoded dynamic parameters and the raw trailing capture.
func (r *Route) captureParams(req *Request) (map[string]string, map[string]string, bool) {
	segments := r.pattern.Segments()
	var params, trailing map[string]string

	i := 0
	for reqSeg := range req.URI().Segments() {
		if i >= len(segments) {
			return nil, nil, false
		}
		seg := segments[i]
		switch seg.Kind {
		case uri.SegmentTrailing:
			if trailing == nil {
				trailing = make(map[string]string, 1)
			}
			if prior, ok := trailing[seg.Value]; ok {
				trailing[seg.Value] = prior + "/" + reqSeg
			} else {
				trailing[seg.Value] = reqSeg
			}
			// Stay on the trailing segment; it consumes the rest.
			continue
		case uri.SegmentDynamic:
			decoded, err := uri.DecodeSegment(reqSeg)
			if err != nil || decoded == "" {
				return nil, nil, false
			}
			if params == nil {
				params = make(map[string]string, 4)
			}
			params[seg.Value] = decoded
		default:
			decoded, err := uri.DecodeSegment(reqSeg)
			if err != nil || decoded != seg.Value {
				return nil, nil, false
			}
		}
		i++
	}

	switch {
	case i == len(segments):
		return params, trailing, true
	case i == len(segments)-1 && segments[i].Kind == uri.SegmentTrailing:
		// Trailing segment matching zero segments.
		if trailing == nil {
			trailing = map[string]string{segments[i].Value: ""}
		}
		return params, trailing, true
	default:
		return nil, nil, false
	}
}

// queryMatches checks that every static query pair the route declares is
// present in the request. Order does not matter and duplicate request
// fields are tolerated.
func (r *Route) queryMatches(req *Request) bool {
	for _, field := range r.pattern.Query() {
		if field.Kind != uri.FieldStatic {
			continue
		}
		if !requestHasField(req, field) {
			return false
		}
	}
	return true
}

// requestHasField reports whether the request query contains the static
// field, comparing decoded names and values.
func requestHasField(req *Request, field uri.Field) bool {
	for name, value := range req.URI().QueryFields() {
		decodedName, err := uri.DecodeQueryComponent(name)
		if err != nil || decodedName != field.Name {
			continue
		}
		decodedValue, err := uri.DecodeQueryComponent(value)
		if err != nil {
			continue
		}
		if field.HasValue {
			if decodedValue == field.Value {
				return true
			}
			continue
		}
		if decodedValue == "" {
			return true
		}
	}
	return false
}

// formatMatches applies the format rules: payload methods compare the
// request Content-Type against the route format; other methods require
// the Accept header to admit it.
func (r *Route) formatMatches(req *Request) bool {
	if r.format.IsZero() {
		return true
	}
	if payloadMethods[req.Method()] {
		ct := req.ContentType()
		if ct.IsZero() {
			return false
		}
		return ct.Compatible(r.format)
	}
	return req.Accepts(r.format)
}

// Collides reports whether two routes could match the same request and
// are therefore ambiguous: methods overlap, paths and queries are
// pairwise compatible, formats are compatible, and ranks are equal.
func (r *Route) Collides(other *Route) bool {
	if r.rank != other.rank {
		return false
	}
	if r.method != other.method && r.method != MethodAny && other.method != MethodAny {
		return false
	}
	if !r.pattern.CollidesWith(other.pattern) {
		return false
	}
	return formatsCollide(r, other)
}

// formatsCollide applies the format dimension of collision: two declared
// formats conflict only when compatible; an undeclared format matches
// everything.
func formatsCollide(a, b *Route) bool {
	if a.format.IsZero() || b.format.IsZero() {
		return true
	}
	return a.format.Compatible(b.format)
}
