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

// Package media implements media types and Accept header negotiation for
// the dispatch core. Route formats and request Content-Type/Accept
// headers are compared through Type.Compatible, which honors type and
// subtype wildcards and media-type parameters.
package media

import (
	"errors"
	"strings"
)

// ErrInvalidType is returned when a media type string is malformed.
var ErrInvalidType = errors.New("invalid media type")

// Param is one media-type parameter, e.g. charset=utf-8.
type Param struct {
	Key   string
	Value string
}

// Type is a parsed media type: "top/sub;k=v;...". The zero value is the
// absent media type; use IsZero to test for it.
type Type struct {
	top    string
	sub    string
	params []Param
}

// Well-known media types.
var (
	Any       = Type{top: "*", sub: "*"}
	JSON      = Type{top: "application", sub: "json"}
	MsgPack   = Type{top: "application", sub: "msgpack"}
	YAML      = Type{top: "application", sub: "yaml"}
	Form      = Type{top: "application", sub: "x-www-form-urlencoded"}
	Multipart = Type{top: "multipart", sub: "form-data"}
	HTML      = Type{top: "text", sub: "html"}
	Plain     = Type{top: "text", sub: "plain"}
	CSV       = Type{top: "text", sub: "csv"}
	XML       = Type{top: "text", sub: "xml"}
	Bytes     = Type{top: "application", sub: "octet-stream"}
)

// shorthands maps short format names, as used in route declarations, to
// full media types.
var shorthands = map[string]Type{
	"any":       Any,
	"json":      JSON,
	"msgpack":   MsgPack,
	"yaml":      YAML,
	"form":      Form,
	"multipart": Multipart,
	"html":      HTML,
	"plain":     Plain,
	"text":      Plain,
	"csv":       CSV,
	"xml":       XML,
	"binary":    Bytes,
	"bytes":     Bytes,
}

// Parse parses a media type, accepting either a full "top/sub;params"
// form or a shorthand name like "json".
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, ErrInvalidType
	}
	if t, ok := shorthands[strings.ToLower(s)]; ok {
		return t, nil
	}

	mime := s
	var rawParams string
	if i := strings.IndexByte(s, ';'); i >= 0 {
		mime, rawParams = s[:i], s[i+1:]
	}

	top, sub, ok := strings.Cut(mime, "/")
	top = strings.TrimSpace(top)
	sub = strings.TrimSpace(sub)
	if !ok || top == "" || sub == "" {
		return Type{}, ErrInvalidType
	}

	t := Type{top: strings.ToLower(top), sub: strings.ToLower(sub)}
	for rawParams != "" {
		var piece string
		piece, rawParams, _ = strings.Cut(rawParams, ";")
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		key, value, _ := strings.Cut(piece, "=")
		value = strings.Trim(value, `"`)
		t.params = append(t.params, Param{Key: strings.ToLower(strings.TrimSpace(key)), Value: value})
	}
	return t, nil
}

// MustParse is Parse that panics on malformed input.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic("media.MustParse: " + err.Error())
	}
	return t
}

// Top returns the top-level type.
func (t Type) Top() string { return t.top }

// Sub returns the subtype.
func (t Type) Sub() string { return t.sub }

// Params returns the media-type parameters in declaration order.
func (t Type) Params() []Param { return t.params }

// Param returns the value of the named parameter and whether it exists.
func (t Type) Param(key string) (string, bool) {
	for _, p := range t.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// IsZero reports whether t is the absent media type.
func (t Type) IsZero() bool { return t.top == "" && t.sub == "" }

// IsAny reports whether t is "*/*".
func (t Type) IsAny() bool { return t.top == "*" && t.sub == "*" }

// Specificity orders media ranges for negotiation: "*/*" < "type/*" <
// "type/sub" < "type/sub;params".
func (t Type) Specificity() int {
	switch {
	case t.IsAny():
		return 0
	case t.sub == "*":
		return 1
	case len(t.params) == 0:
		return 2
	default:
		return 3
	}
}

// Compatible reports whether t and o could describe the same content.
// A "*" top or subtype on either side matches anything at that level.
// Parameters subsume: a key declared by both sides must agree; a key
// declared by only one side does not conflict.
func (t Type) Compatible(o Type) bool {
	if t.IsZero() || o.IsZero() {
		return false
	}
	if t.top != "*" && o.top != "*" && t.top != o.top {
		return false
	}
	if t.sub != "*" && o.sub != "*" && t.sub != o.sub {
		return false
	}
	for _, p := range t.params {
		if other, ok := o.Param(p.Key); ok && other != p.Value {
			return false
		}
	}
	return true
}

// Exact reports whether t and o have the same top and subtype, ignoring
// parameters.
func (t Type) Exact(o Type) bool {
	return t.top == o.top && t.sub == o.sub
}

// String reconstructs the media type text.
func (t Type) String() string {
	if t.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString(t.top)
	b.WriteByte('/')
	b.WriteString(t.sub)
	for _, p := range t.params {
		b.WriteByte(';')
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}
	return b.String()
}
