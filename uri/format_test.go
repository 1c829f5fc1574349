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

func TestFormatValue_PathContext(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "hello", "hello"},
		{"string with space", "a b", "a%20b"},
		{"string with slash", "a/b", "a%2Fb"},
		{"int", 42, "42"},
		{"negative int", -7, "-7"},
		{"uint16", uint16(8000), "8000"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatValue(PartPath, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatValue_QueryContext(t *testing.T) {
	got, err := FormatValue(PartQuery, "a b")
	require.NoError(t, err)
	assert.Equal(t, "a+b", got, "query context uses '+' for spaces")

	got, err = FormatValue(PartQuery, "x=y&z")
	require.NoError(t, err)
	assert.Equal(t, "x%3Dy%26z", got)
}

type versionTag struct{ major, minor int }

func (v versionTag) WriteURI(f *Formatter) error {
	if err := f.WriteValue(v.major); err != nil {
		return err
	}
	f.WriteRaw(".")
	return f.WriteValue(v.minor)
}

func TestFormatter_Displayer(t *testing.T) {
	got, err := FormatValue(PartPath, versionTag{1, 4})
	require.NoError(t, err)
	assert.Equal(t, "1.4", got)
}

func TestFormatter_Unsupported(t *testing.T) {
	_, err := FormatValue(PartPath, struct{ X int }{1})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestFormatter_WritePair(t *testing.T) {
	f := NewFormatter(PartQuery)
	require.NoError(t, f.WritePair("q", "a b"))
	assert.Equal(t, "q=a+b", f.String())

	pathF := NewFormatter(PartPath)
	assert.Error(t, pathF.WritePair("q", "v"), "pairs are query-only")
}

// TestFormatter_RoundTripsParser checks the Displayer/decoder
// consistency contract: a formatted path value decodes back to the
// original string.
func TestFormatter_RoundTripsParser(t *testing.T) {
	for _, v := range []string{"plain", "two words", "a/b", "café", "100%"} {
		formatted, err := FormatValue(PartPath, v)
		require.NoError(t, err)
		decoded, err := DecodeSegmentAllowed(formatted)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}
