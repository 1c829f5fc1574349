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

package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		top   string
		sub   string
	}{
		{"full form", "application/json", "application", "json"},
		{"shorthand", "json", "application", "json"},
		{"uppercase", "Application/JSON", "application", "json"},
		{"wildcard", "*/*", "*", "*"},
		{"subtype wildcard", "text/*", "text", "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.top, mt.Top())
			assert.Equal(t, tt.sub, mt.Sub())
		})
	}
}

func TestParse_Params(t *testing.T) {
	mt, err := Parse(`text/html; charset=utf-8; boundary="xyz"`)
	require.NoError(t, err)
	charset, ok := mt.Param("charset")
	require.True(t, ok)
	assert.Equal(t, "utf-8", charset)
	boundary, _ := mt.Param("boundary")
	assert.Equal(t, "xyz", boundary)
	assert.Equal(t, "text/html;charset=utf-8;boundary=xyz", mt.String())
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "noslash-and-unknown", "/json", "text/"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrInvalidType)
		})
	}
}

func TestType_Compatible(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"exact", "application/json", "application/json", true},
		{"different sub", "application/json", "application/xml", false},
		{"any vs concrete", "*/*", "application/json", true},
		{"sub wildcard", "text/*", "text/html", true},
		{"sub wildcard miss", "text/*", "application/json", false},
		{"params agree", "text/html;v=1", "text/html;v=1", true},
		{"params conflict", "text/html;v=1", "text/html;v=2", false},
		{"param one side", "text/html;v=1", "text/html", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := MustParse(tt.a), MustParse(tt.b)
			assert.Equal(t, tt.want, a.Compatible(b))
			assert.Equal(t, tt.want, b.Compatible(a), "compatibility must be symmetric")
		})
	}
}

func TestType_CompatibleZero(t *testing.T) {
	assert.False(t, Type{}.Compatible(JSON))
	assert.False(t, JSON.Compatible(Type{}))
}

func TestParseAccept_Ordering(t *testing.T) {
	ranges := ParseAccept("text/html, application/json;q=0.8, */*;q=0.1")
	require.Len(t, ranges, 3)
	assert.True(t, ranges[0].Type.Exact(HTML))
	assert.True(t, ranges[1].Type.Exact(JSON))
	assert.True(t, ranges[2].Type.IsAny())
}

func TestParseAccept_SpecificityTieBreak(t *testing.T) {
	ranges := ParseAccept("*/*, text/html")
	require.Len(t, ranges, 2)
	assert.True(t, ranges[0].Type.Exact(HTML), "more specific range wins a quality tie")
}

func TestAccepts(t *testing.T) {
	assert.True(t, Accepts("", JSON), "empty header accepts everything")
	assert.True(t, Accepts("application/json", JSON))
	assert.True(t, Accepts("*/*", JSON))
	assert.True(t, Accepts("application/*", JSON))
	assert.False(t, Accepts("text/html", JSON))
	assert.False(t, Accepts("application/json;q=0", JSON), "q=0 is a refusal")
}

func TestPreferred(t *testing.T) {
	got := Preferred("text/html, application/json;q=0.8", JSON, HTML)
	assert.True(t, got.Exact(HTML))

	got = Preferred("application/msgpack", JSON, HTML)
	assert.True(t, got.IsZero())

	got = Preferred("", JSON, HTML)
	assert.True(t, got.Exact(JSON), "no header returns the first offer")
}
