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

func TestDecodeSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "hello", "hello"},
		{"space", "a%20b", "a b"},
		{"utf8", "caf%C3%A9", "café"},
		{"lowercase hex", "a%2bb", "a+b"},
		{"plus passes through", "a+b", "a+b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSegment(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeSegment_RejectsEncodedSlash(t *testing.T) {
	_, err := DecodeSegment("a%2Fb")
	assert.ErrorIs(t, err, ErrEncodedSlash)
	_, err = DecodeSegment("a%2fb")
	assert.ErrorIs(t, err, ErrEncodedSlash)

	got, err := DecodeSegmentAllowed("a%2Fb")
	require.NoError(t, err)
	assert.Equal(t, "a/b", got)
}

func TestDecodeSegment_Invalid(t *testing.T) {
	_, err := DecodeSegment("a%")
	assert.Error(t, err)
	_, err = DecodeSegment("a%g1")
	assert.Error(t, err)
	_, err = DecodeSegment("%ff")
	assert.ErrorIs(t, err, ErrInvalidUTF8, "lone 0xFF byte is not UTF-8")
}

func TestDecodeQueryComponent(t *testing.T) {
	got, err := DecodeQueryComponent("a+b%20c")
	require.NoError(t, err)
	assert.Equal(t, "a b c", got)
}

func TestEncodePathSegment(t *testing.T) {
	assert.Equal(t, "hello", EncodePathSegment("hello"))
	assert.Equal(t, "a%20b", EncodePathSegment("a b"), "path spaces use %20")
	assert.Equal(t, "a%2Fb", EncodePathSegment("a/b"), "slash must be escaped in one segment")
	assert.Equal(t, "a%3Fb%23c", EncodePathSegment("a?b#c"))
	assert.Equal(t, "%5Bx%5D", EncodePathSegment("[x]"))
}

func TestEncodeTrailingSegments(t *testing.T) {
	assert.Equal(t, "a/b%20c/d", EncodeTrailingSegments("a/b c/d"), "slashes pass through")
}

func TestEncodeQueryComponent(t *testing.T) {
	assert.Equal(t, "a+b", EncodeQueryComponent("a b"), "query spaces use '+'")
	assert.Equal(t, "a%3Db%26c", EncodeQueryComponent("a=b&c"))
	assert.Equal(t, "1%2B2", EncodeQueryComponent("1+2"))
}

// TestEncodeDecode_RoundTrip checks that encoded fragments decode back to
// the original value in both parts.
func TestEncodeDecode_RoundTrip(t *testing.T) {
	values := []string{"plain", "a b", "x/y", "50% off", "café", "a=b&c", "1+1"}
	for _, v := range values {
		path, err := DecodeSegmentAllowed(EncodePathSegment(v))
		require.NoError(t, err, "path %q", v)
		assert.Equal(t, v, path, "path round-trip %q", v)

		query, err := DecodeQueryComponent(EncodeQueryComponent(v))
		require.NoError(t, err, "query %q", v)
		assert.Equal(t, v, query, "query round-trip %q", v)
	}
}
