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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default(ProfileDebug)
	assert.Equal(t, "127.0.0.1", cfg.Address)
	assert.Equal(t, uint16(8000), cfg.Port)
	assert.Equal(t, uint32(5), cfg.KeepAlive)
	assert.Equal(t, LogNormal, cfg.LogLevel)
	assert.Equal(t, uint32(2), cfg.Shutdown.Grace)
	assert.Equal(t, uint32(3), cfg.Shutdown.Mercy)
	assert.True(t, cfg.Ctrlc)
	assert.Equal(t, 32*Kibibyte, cfg.Limits.Get("form"))
	assert.Equal(t, Mebibyte, cfg.Limits.Get("json"))

	release := Default(ProfileRelease)
	assert.Equal(t, LogCritical, release.LogLevel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	content := `
port = 7000

[default]
address = "0.0.0.0"

[debug]
keep_alive = 30

[release]
keep_alive = 90

[default.limits]
form = "64KiB"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(WithFile(path), withEnviron(nil))
	require.NoError(t, err)
	assert.Equal(t, uint16(7000), cfg.Port, "loose keys apply")
	assert.Equal(t, "0.0.0.0", cfg.Address, "[default] applies")
	assert.Equal(t, uint32(30), cfg.KeepAlive, "[debug] wins for debug profile")
	assert.Equal(t, 64*Kibibyte, cfg.Limits.Get("form"))
	assert.Equal(t, Mebibyte, cfg.Limits.Get("json"), "unset limits keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = 7000\n"), 0o600))

	cfg, err := Load(
		WithFile(path),
		WithEnvPrefix("DISPATCH"),
		withEnviron([]string{
			"DISPATCH_PORT=9000",
			"DISPATCH_KEEP_ALIVE=11",
			"DISPATCH_SHUTDOWN_GRACE=10",
			"DISPATCH_LIMITS_JSON=2MiB",
			"DISPATCH_SHUTDOWN_SIGNALS=term,hup",
			"UNRELATED=1",
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, uint16(9000), cfg.Port, "env wins over file")
	assert.Equal(t, uint32(11), cfg.KeepAlive)
	assert.Equal(t, uint32(10), cfg.Shutdown.Grace)
	assert.Equal(t, 2*Mebibyte, cfg.Limits.Get("json"))
	assert.Equal(t, []string{"term", "hup"}, cfg.Shutdown.Signals)
}

func TestLoad_EnvSelectsProfile(t *testing.T) {
	cfg, err := Load(
		WithEnvPrefix("DISPATCH"),
		withEnviron([]string{
			"DISPATCH_PROFILE=release",
			"DISPATCH_SECRET_KEY=4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d4a5b6c7d8e9f0a1b2c3d4e5f6a7b8c9d",
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, ProfileRelease, cfg.Profile)
	assert.Equal(t, LogCritical, cfg.LogLevel)
	assert.Len(t, cfg.SecretKey, 32)
	assert.False(t, cfg.SecretKey.IsZero())
}

func TestLoad_ReleaseRequiresSecretKey(t *testing.T) {
	_, err := Load(WithProfile(ProfileRelease), withEnviron(nil))
	assert.ErrorIs(t, err, ErrInsecureSecretKey)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	_, err := Load(WithFile(filepath.Join(t.TempDir(), "nope.toml")), withEnviron(nil))
	assert.NoError(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("port = [whoops"), 0o600))
	_, err := Load(WithFile(path), withEnviron(nil))
	assert.ErrorIs(t, err, ErrBadFile)
}

func TestLoad_BadSecretKey(t *testing.T) {
	_, err := Load(
		WithEnvPrefix("DISPATCH"),
		withEnviron([]string{"DISPATCH_SECRET_KEY=tooshort"}),
	)
	assert.Error(t, err)
}

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		input string
		want  ByteSize
	}{
		{"0", 0},
		{"1024", 1024},
		{"32KiB", 32 * Kibibyte},
		{"1MiB", Mebibyte},
		{"2GiB", 2 * Gibibyte},
		{"1KB", 1000},
		{"1MB", 1000 * 1000},
		{" 8 KiB ", 8 * Kibibyte},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseByteSize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "-1", "12XB", "KiB"} {
		t.Run("bad "+bad, func(t *testing.T) {
			_, err := ParseByteSize(bad)
			assert.Error(t, err)
		})
	}
}

func TestByteSize_String(t *testing.T) {
	assert.Equal(t, "32KiB", (32 * Kibibyte).String())
	assert.Equal(t, "1MiB", Mebibyte.String())
	assert.Equal(t, "100B", ByteSize(100).String())
}

func TestValidate_Errors(t *testing.T) {
	cfg := Default(ProfileDebug)
	cfg.LogLevel = "verbose"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidValue)

	cfg = Default(ProfileDebug)
	cfg.SecretKey = SecretKey{1, 2, 3}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidValue)
}
