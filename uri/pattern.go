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
	"fmt"
	"strings"
)

// SegmentKind classifies one path segment of a route pattern.
type SegmentKind uint8

const (
	// SegmentStatic matches its literal byte-for-byte.
	SegmentStatic SegmentKind = iota

	// SegmentDynamic ("<name>") matches exactly one non-empty segment.
	SegmentDynamic

	// SegmentTrailing ("<name..>") matches zero or more segments and is
	// only valid in final position.
	SegmentTrailing
)

// Segment is a classified route-pattern path segment. Value holds the
// literal text for static segments and the parameter name otherwise.
type Segment struct {
	Kind  SegmentKind
	Value string
}

// IsDynamic reports whether the segment captures request path text.
func (s Segment) IsDynamic() bool { return s.Kind != SegmentStatic }

// FieldKind classifies one query field of a route pattern.
type FieldKind uint8

const (
	// FieldStatic is a literal "name" or "name=value" pair that must be
	// present in the request query.
	FieldStatic FieldKind = iota

	// FieldDynamic captures a value: "<name>" (valueless, binds the whole
	// field) or "name=<param>".
	FieldDynamic

	// FieldTrailing ("<name..>") captures all remaining query fields.
	FieldTrailing
)

// Field is a classified route-pattern query field.
type Field struct {
	Kind FieldKind

	// Name is the literal field name for static and name=<param> fields,
	// or the parameter name for "<name>" and "<name..>" forms.
	Name string

	// Value is the literal value for static pairs, the parameter name for
	// "name=<param>" fields, and empty otherwise.
	Value string

	// HasValue distinguishes "name" from "name=".
	HasValue bool
}

// Param returns the parameter name a dynamic field binds, or "".
func (f Field) Param() string {
	if f.Kind == FieldStatic {
		return ""
	}
	if f.Kind == FieldDynamic && f.HasValue {
		return f.Value
	}
	return f.Name
}

// Color classifies a pattern's path or query for default ranking.
type Color uint8

const (
	// ColorStatic means every segment (or field) is static.
	ColorStatic Color = iota

	// ColorPartial means static and dynamic parts are mixed.
	ColorPartial

	// ColorWild means every segment (or field) is dynamic.
	ColorWild

	// ColorNone means the component is absent (query only).
	ColorNone
)

// String returns the lowercase color name.
func (c Color) String() string {
	switch c {
	case ColorStatic:
		return "static"
	case ColorPartial:
		return "partial"
	case ColorWild:
		return "wild"
	case ColorNone:
		return "none"
	default:
		return "invalid"
	}
}

// defaultRanks maps (path color, query color) to the default route rank.
// Lower sorts first, so fully static routes are tried before wild ones.
var defaultRanks = map[Color]map[Color]int{
	ColorStatic:  {ColorStatic: -12, ColorPartial: -11, ColorWild: -10, ColorNone: -9},
	ColorPartial: {ColorStatic: -8, ColorPartial: -7, ColorWild: -6, ColorNone: -5},
	ColorWild:    {ColorStatic: -4, ColorPartial: -3, ColorWild: -2, ColorNone: -1},
}

// Pattern is a parsed and classified route URI. It is the single source
// of segment metadata for both forward matching and reverse composition.
type Pattern struct {
	origin   Origin
	base     Origin
	segments []Segment
	query    []Field

	pathColor  Color
	queryColor Color
}

// ParsePattern parses a route pattern: an origin extended with "<name>"
// and "<name..>" tokens in path segments and query fields.
//
// Construction fails if a trailing parameter is not the final path
// segment, a parameter name repeats, or a parameter name is not a valid
// identifier.
func ParsePattern(s string) (*Pattern, error) {
	origin, err := parseOrigin(s, true)
	if err != nil {
		return nil, err
	}
	origin = origin.Normalize()

	p := &Pattern{origin: origin, base: Root}
	seen := make(map[string]struct{})

	for seg := range origin.Segments() {
		classified, err := classifySegment(seg, seen)
		if err != nil {
			return nil, err
		}
		if len(p.segments) > 0 && p.segments[len(p.segments)-1].Kind == SegmentTrailing {
			return nil, fmt.Errorf("%w: %q", ErrTrailingNotLast, p.segments[len(p.segments)-1].Value)
		}
		p.segments = append(p.segments, classified)
	}

	if query, ok := origin.Query(); ok {
		fields, err := classifyQuery(query, seen)
		if err != nil {
			return nil, err
		}
		p.query = fields
	}

	p.pathColor = pathColor(p.segments)
	p.queryColor = queryColor(p.query, origin.HasQuery())
	return p, nil
}

// MustParsePattern is ParsePattern that panics on malformed input.
func MustParsePattern(s string) *Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic("uri.MustParsePattern: " + err.Error())
	}
	return p
}

// classifySegment classifies one path segment, recording parameter names.
func classifySegment(seg string, seen map[string]struct{}) (Segment, error) {
	if !strings.HasPrefix(seg, "<") {
		if strings.ContainsAny(seg, "<>") {
			return Segment{}, fmt.Errorf("%w: %q", ErrInvalidParamName, seg)
		}
		// Static literals are stored decoded; the matcher compares them
		// against decoded request segments.
		decoded, err := DecodeSegmentAllowed(seg)
		if err != nil {
			return Segment{}, err
		}
		return Segment{Kind: SegmentStatic, Value: decoded}, nil
	}
	if !strings.HasSuffix(seg, ">") {
		return Segment{}, fmt.Errorf("%w: %q", ErrInvalidParamName, seg)
	}

	name := seg[1 : len(seg)-1]
	kind := SegmentDynamic
	if strings.HasSuffix(name, "..") {
		kind = SegmentTrailing
		name = strings.TrimSuffix(name, "..")
	}
	if err := checkIdent(name, seen); err != nil {
		return Segment{}, err
	}
	return Segment{Kind: kind, Value: name}, nil
}

// classifyQuery splits a raw pattern query into classified fields.
func classifyQuery(query string, seen map[string]struct{}) ([]Field, error) {
	var fields []Field
	trailing := false
	for _, raw := range strings.Split(query, "&") {
		if raw == "" {
			continue
		}
		name, value, hasValue := strings.Cut(raw, "=")

		field, err := classifyField(name, value, hasValue, seen)
		if err != nil {
			return nil, err
		}
		if field.Kind == FieldTrailing {
			if trailing {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateParam, field.Name)
			}
			trailing = true
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func classifyField(name, value string, hasValue bool, seen map[string]struct{}) (Field, error) {
	if strings.HasPrefix(name, "<") && strings.HasSuffix(name, ">") {
		ident := name[1 : len(name)-1]
		if strings.HasSuffix(ident, "..") {
			ident = strings.TrimSuffix(ident, "..")
			if err := checkIdent(ident, seen); err != nil {
				return Field{}, err
			}
			return Field{Kind: FieldTrailing, Name: ident}, nil
		}
		if err := checkIdent(ident, seen); err != nil {
			return Field{}, err
		}
		return Field{Kind: FieldDynamic, Name: ident, HasValue: hasValue, Value: value}, nil
	}
	if strings.ContainsAny(name, "<>") {
		return Field{}, fmt.Errorf("%w: %q", ErrInvalidParamName, name)
	}

	if hasValue && strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">") {
		ident := value[1 : len(value)-1]
		if err := checkIdent(ident, seen); err != nil {
			return Field{}, err
		}
		return Field{Kind: FieldDynamic, Name: name, Value: ident, HasValue: true}, nil
	}
	if strings.ContainsAny(value, "<>") {
		return Field{}, fmt.Errorf("%w: %q", ErrInvalidParamName, value)
	}
	decodedName, err := DecodeQueryComponent(name)
	if err != nil {
		return Field{}, err
	}
	decodedValue, err := DecodeQueryComponent(value)
	if err != nil {
		return Field{}, err
	}
	return Field{Kind: FieldStatic, Name: decodedName, Value: decodedValue, HasValue: hasValue}, nil
}

// checkIdent validates a parameter identifier and records it in seen.
func checkIdent(name string, seen map[string]struct{}) error {
	if name == "" {
		return ErrEmptyParamName
	}
	if name == "_" {
		// "_" is the conventional ignored parameter; it may repeat.
		return nil
	}
	if !isAlpha(name[0]) && name[0] != '_' {
		return fmt.Errorf("%w: %q", ErrInvalidParamName, name)
	}
	for i := 1; i < len(name); i++ {
		if b := name[i]; !isAlpha(b) && !isDigit(b) && b != '_' {
			return fmt.Errorf("%w: %q", ErrInvalidParamName, name)
		}
	}
	if _, dup := seen[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateParam, name)
	}
	seen[name] = struct{}{}
	return nil
}

func pathColor(segments []Segment) Color {
	static, dynamic := 0, 0
	for _, s := range segments {
		if s.IsDynamic() {
			dynamic++
		} else {
			static++
		}
	}
	switch {
	case dynamic == 0:
		return ColorStatic
	case static == 0:
		return ColorWild
	default:
		return ColorPartial
	}
}

func queryColor(fields []Field, hasQuery bool) Color {
	if !hasQuery {
		return ColorNone
	}
	static, dynamic := 0, 0
	for _, f := range fields {
		if f.Kind == FieldStatic {
			static++
		} else {
			dynamic++
		}
	}
	switch {
	case static == 0 && dynamic == 0:
		return ColorNone
	case dynamic == 0:
		return ColorStatic
	case static == 0:
		return ColorWild
	default:
		return ColorPartial
	}
}

// Origin returns the pattern's full normalized origin, dynamic tokens
// included.
func (p *Pattern) Origin() Origin { return p.origin }

// Base returns the static mount prefix. For an unmounted pattern it is
// the root origin.
func (p *Pattern) Base() Origin { return p.base }

// Segments returns the classified path segments. Callers must not mutate
// the returned slice.
func (p *Pattern) Segments() []Segment { return p.segments }

// Query returns the classified query fields, or nil when the pattern has
// no query.
func (p *Pattern) Query() []Field { return p.query }

// PathColor returns the path color.
func (p *Pattern) PathColor() Color { return p.pathColor }

// QueryColor returns the query color.
func (p *Pattern) QueryColor() Color { return p.queryColor }

// DefaultRank returns the rank implied by the pattern's colors, per the
// (path, query) rank table. More specific patterns rank lower and are
// therefore tried first.
func (p *Pattern) DefaultRank() int {
	return defaultRanks[p.pathColor][p.queryColor]
}

// HasTrailing reports whether the final path segment is a trailing
// parameter.
func (p *Pattern) HasTrailing() bool {
	return len(p.segments) > 0 && p.segments[len(p.segments)-1].Kind == SegmentTrailing
}

// Prefix returns a copy of p mounted beneath base. The base must be a
// static, query-free origin; its segments become static segments in
// front of p's and the pattern's base records the mount point.
func (p *Pattern) Prefix(base Origin) (*Pattern, error) {
	if base.HasQuery() {
		return nil, fmt.Errorf("%w: mount point %q has a query", ErrInvalidParamName, base.String())
	}
	base = base.Normalize()
	if strings.ContainsAny(base.Path(), "<>") {
		return nil, fmt.Errorf("%w: mount point %q is not static", ErrInvalidParamName, base.String())
	}

	mounted := &Pattern{
		base:  base,
		query: p.query,
	}
	for seg := range base.Segments() {
		decoded, err := DecodeSegmentAllowed(seg)
		if err != nil {
			return nil, err
		}
		mounted.segments = append(mounted.segments, Segment{Kind: SegmentStatic, Value: decoded})
	}
	mounted.segments = append(mounted.segments, p.segments...)

	origin := base.Append(p.origin.WithoutQuery())
	if q, ok := p.origin.Query(); ok {
		origin = origin.WithQuery(q)
	}
	mounted.origin = origin
	mounted.pathColor = pathColor(mounted.segments)
	mounted.queryColor = queryColor(mounted.query, origin.HasQuery())
	return mounted, nil
}

// CollidesWith reports whether two patterns could match the same request
// path and query: segments are zipped pairwise (dynamic collides with
// anything, a trailing segment collides with any suffix), and every
// static query pair on one side must not be contradicted by the other.
func (p *Pattern) CollidesWith(other *Pattern) bool {
	return segmentsCollide(p.segments, other.segments) &&
		queriesCollide(p.query, other.query)
}

func segmentsCollide(a, b []Segment) bool {
	for i := 0; ; i++ {
		aDone, bDone := i >= len(a), i >= len(b)
		switch {
		case aDone && bDone:
			return true
		case aDone:
			// Length mismatch collides only when the longer side continues
			// with a trailing segment, which matches zero segments too.
			return b[i].Kind == SegmentTrailing
		case bDone:
			return a[i].Kind == SegmentTrailing
		}
		as, bs := a[i], b[i]
		if as.Kind == SegmentTrailing || bs.Kind == SegmentTrailing {
			return true
		}
		if !as.IsDynamic() && !bs.IsDynamic() && as.Value != bs.Value {
			return false
		}
	}
}

// queriesCollide reports whether some request query satisfies both
// patterns' static pairs. Dynamic fields never conflict.
func queriesCollide(a, b []Field) bool {
	for _, fa := range a {
		if fa.Kind != FieldStatic || !fa.HasValue {
			continue
		}
		for _, fb := range b {
			if fb.Kind == FieldStatic && fb.HasValue && fb.Name == fa.Name && fb.Value != fa.Value {
				return false
			}
		}
	}
	return true
}

// String returns the pattern's origin text.
func (p *Pattern) String() string { return p.origin.String() }
