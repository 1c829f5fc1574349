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

package form

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filter struct {
	Query    string `form:"q"`
	Page     int    `form:"page" default:"1"`
	PerPage  uint   `form:"per_page"`
	Exact    bool
	Score    float64  `form:"score"`
	Tags     []string `form:"tag"`
	Internal string   `form:"-"`
	secret   string   //nolint:unused // must be skipped by the decoder
}

func TestDecode_Basic(t *testing.T) {
	values := url.Values{
		"q":        {"routing"},
		"page":     {"3"},
		"per_page": {"25"},
		"exact":    {"true"},
		"score":    {"0.5"},
		"tag":      {"a", "b"},
	}

	var f filter
	require.NoError(t, Decode(values, &f))
	assert.Equal(t, "routing", f.Query)
	assert.Equal(t, 3, f.Page)
	assert.Equal(t, uint(25), f.PerPage)
	assert.True(t, f.Exact)
	assert.InDelta(t, 0.5, f.Score, 1e-9)
	assert.Equal(t, []string{"a", "b"}, f.Tags)
}

func TestDecode_Defaults(t *testing.T) {
	var f filter
	require.NoError(t, Decode(url.Values{}, &f))
	assert.Equal(t, 1, f.Page, "default tag applies when the field is absent")
	assert.Equal(t, "", f.Query)
}

func TestDecode_Required(t *testing.T) {
	type target struct {
		Name string `form:"name,required"`
	}
	var v target
	err := Decode(url.Values{}, &v)
	assert.ErrorIs(t, err, ErrMissingField)

	require.NoError(t, Decode(url.Values{"name": {"x"}}, &v))
	assert.Equal(t, "x", v.Name)
}

func TestDecode_Strict(t *testing.T) {
	var f filter
	values := url.Values{"q": {"x"}, "bogus": {"1"}}

	assert.NoError(t, Decode(values, &f), "lenient mode ignores unknown fields")

	err := Decode(values, &f, Strict())
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestDecode_StrictToleratesMethodOverride(t *testing.T) {
	var f filter
	values := url.Values{"q": {"x"}, "_method": {"DELETE"}}
	assert.NoError(t, DecodeStrict(values, &f))
}

func TestDecode_BadValue(t *testing.T) {
	var f filter
	err := Decode(url.Values{"page": {"NaN"}}, &f)
	assert.ErrorIs(t, err, ErrBadValue)
}

func TestDecode_PointerField(t *testing.T) {
	type target struct {
		Limit *int `form:"limit"`
	}
	var v target
	require.NoError(t, Decode(url.Values{"limit": {"9"}}, &v))
	require.NotNil(t, v.Limit)
	assert.Equal(t, 9, *v.Limit)

	var empty target
	require.NoError(t, Decode(url.Values{}, &empty))
	assert.Nil(t, empty.Limit, "absent field leaves pointer nil")
}

func TestDecode_BadTarget(t *testing.T) {
	assert.ErrorIs(t, Decode(url.Values{}, nil), ErrNotStructPointer)
	var n int
	assert.ErrorIs(t, Decode(url.Values{}, &n), ErrNotStructPointer)
	var f filter
	assert.ErrorIs(t, Decode(url.Values{}, f), ErrNotStructPointer)
}
