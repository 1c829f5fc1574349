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

import "strings"

// Absolute is an RFC 3986 absolute URI:
// "scheme:[//authority][path][?query]".
type Absolute struct {
	scheme    string
	authority Authority
	hasAuth   bool
	origin    Origin
	hasOrigin bool
}

// ParseAbsolute parses s as an absolute URI.
func ParseAbsolute(s string) (Absolute, error) {
	if s == "" {
		return Absolute{}, parseErr(0, KindEmpty)
	}

	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return Absolute{}, parseErr(0, KindInvalidScheme)
	}
	scheme := s[:colon]
	if !isAlpha(scheme[0]) {
		return Absolute{}, parseErr(0, KindInvalidScheme)
	}
	for i := 1; i < len(scheme); i++ {
		if !isSchemeByte(scheme[i]) {
			return Absolute{}, parseErr(i, KindInvalidScheme)
		}
	}

	a := Absolute{scheme: scheme}
	rest := s[colon+1:]
	offset := colon + 1

	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		offset += 2
		end := len(rest)
		if i := strings.IndexAny(rest, "/?"); i >= 0 {
			end = i
		}
		auth, err := ParseAuthority(rest[:end])
		if err != nil {
			var pe *ParseError
			if ok := asParseError(err, &pe); ok {
				return Absolute{}, parseErr(offset+pe.Index, pe.Kind)
			}
			return Absolute{}, err
		}
		a.authority = auth
		a.hasAuth = true
		rest = rest[end:]
		offset += end
	}

	if rest != "" {
		// With an authority present the remainder must be an absolute
		// path; without one it may be a rootless path, which the origin
		// grammar does not cover and this core never produces.
		if rest[0] != '/' && rest[0] != '?' {
			return Absolute{}, parseErr(offset, KindMissingSlash)
		}
		if rest[0] == '?' {
			if err := validateQuery(rest[1:], offset+1, false); err != nil {
				return Absolute{}, err
			}
			a.origin = Origin{path: "/", query: rest[1:], hasQuery: true}
		} else {
			origin, err := ParseOrigin(rest)
			if err != nil {
				var pe *ParseError
				if ok := asParseError(err, &pe); ok {
					return Absolute{}, parseErr(offset+pe.Index, pe.Kind)
				}
				return Absolute{}, err
			}
			a.origin = origin
		}
		a.hasOrigin = true
	}
	return a, nil
}

// asParseError reports whether err is a *ParseError, storing it in target.
func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}

// Scheme returns the URI scheme.
func (a Absolute) Scheme() string { return a.scheme }

// Authority returns the authority component and whether one was present.
func (a Absolute) Authority() (Authority, bool) { return a.authority, a.hasAuth }

// Origin returns the path-and-query part and whether one was present.
func (a Absolute) Origin() (Origin, bool) { return a.origin, a.hasOrigin }

// String reconstructs the absolute URI text.
func (a Absolute) String() string {
	var b strings.Builder
	b.WriteString(a.scheme)
	b.WriteByte(':')
	if a.hasAuth {
		b.WriteString("//")
		b.WriteString(a.authority.String())
	}
	if a.hasOrigin {
		b.WriteString(a.origin.String())
	}
	return b.String()
}
