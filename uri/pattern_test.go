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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern_Classification(t *testing.T) {
	p, err := ParsePattern("/users/<id>/files/<path..>")
	require.NoError(t, err)

	segs := p.Segments()
	require.Len(t, segs, 4)
	assert.Equal(t, Segment{Kind: SegmentStatic, Value: "users"}, segs[0])
	assert.Equal(t, Segment{Kind: SegmentDynamic, Value: "id"}, segs[1])
	assert.Equal(t, Segment{Kind: SegmentStatic, Value: "files"}, segs[2])
	assert.Equal(t, Segment{Kind: SegmentTrailing, Value: "path"}, segs[3])
	assert.True(t, p.HasTrailing())
}

func TestParsePattern_QueryFields(t *testing.T) {
	p, err := ParsePattern("/search?kind=book&q=<term>&<page>&<rest..>")
	require.NoError(t, err)

	fields := p.Query()
	require.Len(t, fields, 4)

	assert.Equal(t, FieldStatic, fields[0].Kind)
	assert.Equal(t, "kind", fields[0].Name)
	assert.Equal(t, "book", fields[0].Value)

	assert.Equal(t, FieldDynamic, fields[1].Kind)
	assert.Equal(t, "q", fields[1].Name)
	assert.Equal(t, "term", fields[1].Param())

	assert.Equal(t, FieldDynamic, fields[2].Kind)
	assert.Equal(t, "page", fields[2].Param())

	assert.Equal(t, FieldTrailing, fields[3].Kind)
	assert.Equal(t, "rest", fields[3].Param())
}

func TestParsePattern_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"trailing not last", "/a/<p..>/b", ErrTrailingNotLast},
		{"duplicate param", "/a/<x>/<x>", ErrDuplicateParam},
		{"duplicate across query", "/a/<x>?<x>", ErrDuplicateParam},
		{"empty name", "/a/<>", ErrEmptyParamName},
		{"bad ident", "/a/<1x>", ErrInvalidParamName},
		{"unclosed token", "/a/<x", ErrInvalidParamName},
		{"stray bracket", "/a/b>c", ErrInvalidParamName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePattern(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParsePattern_IgnoredParamMayRepeat(t *testing.T) {
	_, err := ParsePattern("/a/<_>/<_>")
	assert.NoError(t, err)
}

func TestPattern_Colors(t *testing.T) {
	tests := []struct {
		pattern    string
		pathColor  Color
		queryColor Color
	}{
		{"/a/b", ColorStatic, ColorNone},
		{"/a/<b>", ColorPartial, ColorNone},
		{"/<a>/<b>", ColorWild, ColorNone},
		{"/<a..>", ColorWild, ColorNone},
		{"/", ColorStatic, ColorNone},
		{"/a?x=1", ColorStatic, ColorStatic},
		{"/a?x=1&<y>", ColorStatic, ColorPartial},
		{"/a?<y>", ColorStatic, ColorWild},
		{"/<a>?<y..>", ColorWild, ColorWild},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p := MustParsePattern(tt.pattern)
			assert.Equal(t, tt.pathColor, p.PathColor(), "path color")
			assert.Equal(t, tt.queryColor, p.QueryColor(), "query color")
		})
	}
}

// TestPattern_DefaultRank checks the full (path, query) rank table.
func TestPattern_DefaultRank(t *testing.T) {
	tests := []struct {
		pattern string
		rank    int
	}{
		{"/a?x=1", -12},
		{"/a?x=1&<y>", -11},
		{"/a?<y>", -10},
		{"/a", -9},
		{"/a/<b>?x=1", -8},
		{"/a/<b>?x=1&<y>", -7},
		{"/a/<b>?<y>", -6},
		{"/a/<b>", -5},
		{"/<a>?x=1", -4},
		{"/<a>?x=1&<y>", -3},
		{"/<a>?<y>", -2},
		{"/<a>", -1},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.rank, MustParsePattern(tt.pattern).DefaultRank())
		})
	}
}

func TestPattern_Prefix(t *testing.T) {
	p := MustParsePattern("/users/<id>?all=<a>")
	mounted, err := p.Prefix(MustParseOrigin("/api/v1"))
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", mounted.Base().String())
	assert.Equal(t, "/api/v1/users/<id>?all=<a>", mounted.String())

	segs := mounted.Segments()
	require.Len(t, segs, 4)
	assert.Equal(t, "api", segs[0].Value)
	assert.Equal(t, SegmentDynamic, segs[3].Kind)

	assert.True(t, mounted.Base().PrefixOf(mounted.Origin()),
		"mount base must be a segment prefix of the full pattern")
}

func TestPattern_PrefixRejectsBadBase(t *testing.T) {
	p := MustParsePattern("/x")
	_, err := p.Prefix(MustParseOrigin("/a?q=1"))
	assert.Error(t, err, "query-carrying mount point must be rejected")
}

func TestPattern_CollidesWith(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		collide bool
	}{
		{"identical static", "/a/b", "/a/b", true},
		{"different static", "/a/b", "/a/c", false},
		{"static vs dynamic", "/hello", "/<name>", true},
		{"both dynamic", "/<a>", "/<b>", true},
		{"length mismatch", "/a/b", "/a", false},
		{"trailing vs longer", "/a/<p..>", "/a/b/c", true},
		{"trailing vs shorter", "/a/b/<p..>", "/a", false},
		{"trailing matches zero", "/a/<p..>", "/a", true},
		{"static pair conflict", "/a?k=1", "/a?k=2", false},
		{"static pair same", "/a?k=1", "/a?k=1", true},
		{"static vs dynamic query", "/a?k=1", "/a?<q>", true},
		{"disjoint static pairs", "/a?k=1", "/a?j=2", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := MustParsePattern(tt.a), MustParsePattern(tt.b)
			assert.Equal(t, tt.collide, a.CollidesWith(b))
			assert.Equal(t, tt.collide, b.CollidesWith(a), "collision must be symmetric")
		})
	}
}
