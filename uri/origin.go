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

package uri

import (
	"iter"
	"strings"
)

// Origin is an absolute-path HTTP request target: "/path[?query]".
// The special form "*" (server-wide OPTIONS) is also accepted.
//
// An Origin is a pair of string slices into its source text; copying the
// struct never copies path or query bytes. The zero value is an invalid
// Origin; use ParseOrigin or Root.
type Origin struct {
	path     string
	query    string
	hasQuery bool
}

// Root is the origin "/".
var Root = Origin{path: "/"}

// ParseOrigin parses s as an origin-form request target.
//
// The path must start with '/' (or be exactly "*"); an optional query
// follows '?'. Every byte must be permitted by the RFC 3986 origin
// grammar; route-pattern tokens '<' and '>' are rejected here, use
// ParsePattern for route declarations.
func ParseOrigin(s string) (Origin, error) {
	return parseOrigin(s, false)
}

// MustParseOrigin is ParseOrigin that panics on malformed input. Use only
// for literals known to be valid.
func MustParseOrigin(s string) Origin {
	o, err := ParseOrigin(s)
	if err != nil {
		panic("uri.MustParseOrigin: " + err.Error())
	}
	return o
}

func parseOrigin(s string, pattern bool) (Origin, error) {
	if s == "" {
		return Origin{}, parseErr(0, KindEmpty)
	}
	if s == "*" {
		return Origin{path: "*"}, nil
	}
	if s[0] != '/' {
		return Origin{}, parseErr(0, KindMissingSlash)
	}

	path, query, hasQuery := strings.Cut(s, "?")
	if err := validatePath(path[1:], 1, pattern); err != nil {
		return Origin{}, err
	}
	if hasQuery {
		if err := validateQuery(query, len(path)+1, pattern); err != nil {
			return Origin{}, err
		}
	}
	return Origin{path: path, query: query, hasQuery: hasQuery}, nil
}

// Path returns the path component, including the leading '/'.
func (o Origin) Path() string { return o.path }

// Query returns the query component without the '?' and whether one was
// present. An empty query ("/path?") reports ("", true).
func (o Origin) Query() (string, bool) { return o.query, o.hasQuery }

// HasQuery reports whether a query component is present.
func (o Origin) HasQuery() bool { return o.hasQuery }

// IsZero reports whether o is the zero (unparsed) Origin.
func (o Origin) IsZero() bool { return o.path == "" }

// String reconstructs the origin text.
func (o Origin) String() string {
	if !o.hasQuery {
		return o.path
	}
	return o.path + "?" + o.query
}

// WithQuery returns a copy of o carrying the given raw query.
func (o Origin) WithQuery(query string) Origin {
	o.query = query
	o.hasQuery = true
	return o
}

// WithoutQuery returns a copy of o with no query component.
func (o Origin) WithoutQuery() Origin {
	o.query = ""
	o.hasQuery = false
	return o
}

// Segments iterates the non-empty path segments without copying. Empty
// segments from consecutive slashes are skipped, so iteration over a raw
// and a normalized origin yields the same sequence.
func (o Origin) Segments() iter.Seq[string] {
	return func(yield func(string) bool) {
		path := o.path
		for len(path) > 0 {
			for len(path) > 0 && path[0] == '/' {
				path = path[1:]
			}
			if len(path) == 0 {
				return
			}
			end := strings.IndexByte(path, '/')
			if end < 0 {
				end = len(path)
			}
			if !yield(path[:end]) {
				return
			}
			path = path[end:]
		}
	}
}

// SegmentCount returns the number of non-empty path segments.
func (o Origin) SegmentCount() int {
	n := 0
	for range o.Segments() {
		n++
	}
	return n
}

// PrefixOf reports whether o's path segments are a segment-wise prefix of
// other's. The root origin is a prefix of everything.
func (o Origin) PrefixOf(other Origin) bool {
	next, stop := iter.Pull(other.Segments())
	defer stop()
	for seg := range o.Segments() {
		got, ok := next()
		if !ok || got != seg {
			return false
		}
	}
	return true
}

// QueryFields iterates the '&'-separated raw query fields as (name,
// value) pairs. A field with no '=' yields its text as name and "" as
// value.
func (o Origin) QueryFields() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if !o.hasQuery {
			return
		}
		query := o.query
		for len(query) > 0 {
			field := query
			if end := strings.IndexByte(query, '&'); end >= 0 {
				field, query = query[:end], query[end+1:]
			} else {
				query = ""
			}
			if field == "" {
				continue
			}
			name, value, _ := strings.Cut(field, "=")
			if !yield(name, value) {
				return
			}
		}
	}
}

// IsNormalized reports whether o is already in normalized form: no empty
// interior segments, no dot-segments, and no trailing slash on a
// non-root path.
func (o Origin) IsNormalized() bool {
	if o.path == "*" || o.path == "/" {
		return true
	}
	if strings.HasSuffix(o.path, "/") {
		return false
	}
	for seg := range o.Segments() {
		if seg == "." || seg == ".." {
			return false
		}
	}
	return !strings.Contains(o.path, "//")
}

// Normalize returns the normalized form of o: runs of '/' collapse to
// one, '.' segments are dropped, '..' segments resolve against the prior
// segment when one exists, and a trailing '/' on a non-root path is
// stripped. Normalization is idempotent and preserves the query.
func (o Origin) Normalize() Origin {
	if o.IsNormalized() {
		return o
	}
	o.path = normalizePath(o.path)
	return o
}

// normalizePath rewrites path per Normalize. The input must begin with '/'.
func normalizePath(path string) string {
	segments := make([]string, 0, strings.Count(path, "/"))
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) > 0 {
				segments = segments[:len(segments)-1]
			}
		default:
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(segments, "/")
}

// Append returns the origin formed by appending other's path beneath o's,
// normalized. The query of other wins.
func (o Origin) Append(other Origin) Origin {
	base := strings.TrimSuffix(o.path, "/")
	joined := Origin{
		path:     base + other.path,
		query:    other.query,
		hasQuery: other.hasQuery,
	}
	return joined.Normalize()
}
