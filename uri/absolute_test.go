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

func TestParseAuthority(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		userinfo string
		host     string
		port     uint16
		hasPort  bool
	}{
		{"host only", "example.com", "", "example.com", 0, false},
		{"host and port", "example.com:8000", "", "example.com", 8000, true},
		{"full", "user:pass@example.com:443", "user:pass", "example.com", 443, true},
		{"ipv6", "[::1]:9000", "", "[::1]", 9000, true},
		{"ipv4", "127.0.0.1:80", "", "127.0.0.1", 80, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAuthority(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.userinfo, a.Userinfo())
			assert.Equal(t, tt.host, a.Host())
			port, ok := a.Port()
			assert.Equal(t, tt.hasPort, ok)
			assert.Equal(t, tt.port, port)
			assert.Equal(t, tt.input, a.String())
		})
	}
}

func TestParseAuthority_Invalid(t *testing.T) {
	for _, input := range []string{"", "host:99999", "host:", "@", "host:abc", "[::1"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAuthority(input)
			assert.Error(t, err)
		})
	}
}

func TestParseAbsolute(t *testing.T) {
	a, err := ParseAbsolute("https://user@example.com:8443/a/b?c=d")
	require.NoError(t, err)
	assert.Equal(t, "https", a.Scheme())

	auth, ok := a.Authority()
	require.True(t, ok)
	assert.Equal(t, "example.com", auth.Host())
	port, _ := auth.Port()
	assert.Equal(t, uint16(8443), port)
	assert.Equal(t, "user", auth.Userinfo())

	origin, ok := a.Origin()
	require.True(t, ok)
	assert.Equal(t, "/a/b", origin.Path())

	assert.Equal(t, "https://user@example.com:8443/a/b?c=d", a.String())
}

func TestParseAbsolute_Forms(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		hasAuth bool
		hasOrig bool
	}{
		{"scheme only", "foo:", false, false},
		{"authority only", "http://example.com", true, false},
		{"no authority", "file:/etc/hosts", false, true},
		{"query only", "http://h?x=1", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAbsolute(tt.input)
			require.NoError(t, err)
			_, hasAuth := a.Authority()
			_, hasOrig := a.Origin()
			assert.Equal(t, tt.hasAuth, hasAuth)
			assert.Equal(t, tt.hasOrig, hasOrig)
		})
	}
}

func TestParseAbsolute_Invalid(t *testing.T) {
	for _, input := range []string{"", ":nope", "1http://x", "http//x", "http://ex ample.com"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseAbsolute(input)
			assert.Error(t, err)
		})
	}
}
