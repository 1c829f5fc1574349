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

// Package config loads the dispatch server configuration from a
// provider-neutral key/value tree.
//
// Sources are merged last-wins: built-in profile defaults, then the
// application's TOML file, then environment variables carrying the
// configured prefix. The merged tree binds into the Config struct.
//
// Example:
//
//	cfg, err := config.Load(
//	    config.WithFile("dispatch.toml"),
//	    config.WithEnvPrefix("DISPATCH"),
//	)
package config

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// Profile names with built-in defaults.
const (
	ProfileDebug   = "debug"
	ProfileRelease = "release"
)

// LogLevel controls log verbosity.
type LogLevel string

// Log levels, from chattiest to silent.
const (
	LogDebug    LogLevel = "debug"
	LogNormal   LogLevel = "normal"
	LogCritical LogLevel = "critical"
	LogOff      LogLevel = "off"
)

// CliColors controls colorization of terminal logs.
type CliColors string

// Color modes.
const (
	ColorsAuto   CliColors = "auto"
	ColorsAlways CliColors = "always"
	ColorsNever  CliColors = "never"
)

// ShutdownConfig bounds graceful shutdown.
type ShutdownConfig struct {
	// Signals lists the OS signal names that trip shutdown, in addition
	// to SIGINT when Ctrlc is set. Default: ["term"] on Unix.
	Signals []string `mapstructure:"signals"`

	// Grace is how long, in seconds, in-flight connections keep full
	// service after the trigger trips.
	Grace uint32 `mapstructure:"grace"`

	// Mercy is how long, in seconds, connections get to wind down after
	// the grace period before their sockets are terminated.
	Mercy uint32 `mapstructure:"mercy"`
}

// Limits caps request body sizes per data-guard kind.
type Limits map[string]ByteSize

// Get returns the limit for the named kind, falling back to the "data"
// kind, then to 1MiB.
func (l Limits) Get(kind string) ByteSize {
	if size, ok := l[kind]; ok {
		return size
	}
	if size, ok := l["data"]; ok {
		return size
	}
	return Mebibyte
}

// DefaultLimits returns the per-kind body size caps.
func DefaultLimits() Limits {
	return Limits{
		"form":    32 * Kibibyte,
		"json":    Mebibyte,
		"msgpack": Mebibyte,
		"yaml":    Mebibyte,
		"string":  8 * Kibibyte,
		"bytes":   Mebibyte,
		"data":    Mebibyte,
	}
}

// SecretKey is the 256-bit key used for cookie signing. A zero key is
// tolerated only in the debug profile.
type SecretKey []byte

// IsZero reports whether the key is unset or all zero bytes.
func (k SecretKey) IsZero() bool {
	for _, b := range k {
		if b != 0 {
			return false
		}
	}
	return true
}

// Config is the dispatch server configuration tree.
type Config struct {
	// Address is the IP address to bind.
	Address string `mapstructure:"address"`

	// Port is the TCP port to bind.
	Port uint16 `mapstructure:"port"`

	// Workers is the number of runtime worker threads (GOMAXPROCS).
	Workers uint16 `mapstructure:"workers"`

	// KeepAlive is the idle connection timeout in seconds; 0 disables
	// keep-alive.
	KeepAlive uint32 `mapstructure:"keep_alive"`

	// LogLevel selects log verbosity.
	LogLevel LogLevel `mapstructure:"log_level"`

	// CliColors selects terminal log coloring.
	CliColors CliColors `mapstructure:"cli_colors"`

	// SecretKey signs and encrypts cookies.
	SecretKey SecretKey `mapstructure:"secret_key"`

	// Limits caps body sizes per data-guard kind.
	Limits Limits `mapstructure:"limits"`

	// Ctrlc trips shutdown on SIGINT.
	Ctrlc bool `mapstructure:"ctrlc"`

	// Shutdown bounds graceful shutdown.
	Shutdown ShutdownConfig `mapstructure:"shutdown"`

	// Profile is the active configuration profile.
	Profile string `mapstructure:"profile"`
}

// Default returns the built-in configuration for the given profile.
func Default(profile string) Config {
	cfg := Config{
		Address:   "127.0.0.1",
		Port:      8000,
		Workers:   uint16(runtime.NumCPU() * 2), //nolint:gosec // CPU counts fit
		KeepAlive: 5,
		LogLevel:  LogNormal,
		CliColors: ColorsAuto,
		Limits:    DefaultLimits(),
		Ctrlc:     true,
		Shutdown: ShutdownConfig{
			Signals: defaultShutdownSignals(),
			Grace:   2,
			Mercy:   3,
		},
		Profile: profile,
	}
	if profile == ProfileRelease {
		cfg.LogLevel = LogCritical
	}
	return cfg
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	profile   string
	filePath  string
	envPrefix string
	environ   []string
}

// WithProfile selects the active profile. Default: "debug".
func WithProfile(profile string) Option {
	return func(l *loader) { l.profile = profile }
}

// WithFile reads the given TOML file as a configuration source. A
// missing file is not an error; a malformed one is.
func WithFile(path string) Option {
	return func(l *loader) { l.filePath = path }
}

// WithEnvPrefix merges environment variables with the given prefix
// (e.g. "DISPATCH" matches DISPATCH_PORT) as the highest-priority
// source.
func WithEnvPrefix(prefix string) Option {
	return func(l *loader) { l.envPrefix = prefix }
}

// withEnviron overrides the process environment, for tests.
func withEnviron(environ []string) Option {
	return func(l *loader) { l.environ = environ }
}

// Load builds a Config by merging defaults, the optional TOML file, and
// prefixed environment variables, then validates the result.
func Load(opts ...Option) (Config, error) {
	l := loader{profile: ProfileDebug, environ: os.Environ()}
	for _, opt := range opts {
		opt(&l)
	}
	if envProfile := l.envValue("profile"); envProfile != "" {
		l.profile = envProfile
	}

	tree := make(map[string]any)

	if l.filePath != "" {
		fileTree, err := loadFile(l.filePath, l.profile)
		if err != nil {
			return Config{}, err
		}
		if err := mergo.Merge(&tree, fileTree, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merging file configuration: %w", err)
		}
	}

	if l.envPrefix != "" {
		envTree := envSource(l.environ, l.envPrefix)
		if err := mergo.Merge(&tree, envTree, mergo.WithOverride); err != nil {
			return Config{}, fmt.Errorf("merging environment configuration: %w", err)
		}
	}

	cfg := Default(l.profile)
	if err := bind(tree, &cfg); err != nil {
		return Config{}, err
	}
	cfg.Profile = l.profile
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MustLoad is Load that panics on error.
func MustLoad(opts ...Option) Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic("config.MustLoad: " + err.Error())
	}
	return cfg
}

// envValue returns the raw value of the prefixed variable for key, or "".
func (l loader) envValue(key string) string {
	if l.envPrefix == "" {
		return ""
	}
	want := strings.ToUpper(l.envPrefix) + "_" + strings.ToUpper(key)
	for _, kv := range l.environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == want {
			return v
		}
	}
	return ""
}

// Validate checks the configuration for launch-blocking problems.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogDebug, LogNormal, LogCritical, LogOff:
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidValue, c.LogLevel)
	}
	switch c.CliColors {
	case ColorsAuto, ColorsAlways, ColorsNever:
	default:
		return fmt.Errorf("%w: cli_colors %q", ErrInvalidValue, c.CliColors)
	}
	if len(c.SecretKey) != 0 && len(c.SecretKey) != 32 {
		return fmt.Errorf("%w: secret_key must be 256 bits", ErrInvalidValue)
	}
	if c.Profile == ProfileRelease && c.SecretKey.IsZero() {
		return ErrInsecureSecretKey
	}
	return nil
}

var (
	secretKeyType = reflect.TypeOf(SecretKey(nil))
	byteSizeType  = reflect.TypeOf(ByteSize(0))
)

// byteSizeHook parses human-readable size strings into ByteSize.
func byteSizeHook(from, to reflect.Type, data any) (any, error) {
	if to != byteSizeType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return ParseByteSize(s)
	}
	n, err := cast.ToInt64E(data)
	if err != nil {
		return nil, fmt.Errorf("%w: size %v", ErrInvalidValue, data)
	}
	return ByteSize(n), nil
}

// bind decodes the merged tree into cfg with weak typing and text
// unmarshalling for ByteSize and SecretKey values.
func bind(tree map[string]any, cfg *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.DecodeHookFuncType(secretKeyHook),
			mapstructure.DecodeHookFuncType(byteSizeHook),
		),
	})
	if err != nil {
		return fmt.Errorf("building configuration decoder: %w", err)
	}
	if err := decoder.Decode(tree); err != nil {
		return fmt.Errorf("%w: %w", ErrBadTree, err)
	}
	return nil
}

// secretKeyHook decodes a hex string into a SecretKey.
func secretKeyHook(from, to reflect.Type, data any) (any, error) {
	if to != secretKeyType {
		return data, nil
	}
	raw, err := cast.ToStringE(data)
	if err != nil {
		return data, nil
	}
	return parseSecretKey(raw)
}

// parseSecretKey decodes a 64-digit hex string.
func parseSecretKey(s string) (SecretKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) != 64 {
		return nil, fmt.Errorf("%w: secret_key must be 64 hex digits", ErrInvalidValue)
	}
	key := make(SecretKey, 32)
	for i := 0; i < 32; i++ {
		hi, ok1 := hexVal(s[2*i])
		lo, ok2 := hexVal(s[2*i+1])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: secret_key is not hex", ErrInvalidValue)
		}
		key[i] = hi<<4 | lo
	}
	return key, nil
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

// loadFile reads a TOML file and flattens its profile tables: loose keys
// outside any profile table apply first, then [default], then
// [<profile>], then [global] wins.
func loadFile(path, profile string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFile, err)
	}

	profileTables := map[string]bool{
		"default": true, "global": true,
		ProfileDebug: true, ProfileRelease: true,
	}

	tree := make(map[string]any)
	loose := make(map[string]any)
	for key, value := range raw {
		if !profileTables[key] {
			loose[key] = value
		}
	}
	if err := mergo.Merge(&tree, loose, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merging configuration: %w", err)
	}

	for _, table := range []string{"default", profile, "global"} {
		src, ok := raw[table]
		if !ok {
			continue
		}
		asMap, ok := src.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: [%s] is not a table", ErrBadFile, table)
		}
		if err := mergo.Merge(&tree, asMap, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging configuration: %w", err)
		}
	}
	return tree, nil
}

// envSource converts prefixed environment variables into a nested tree.
// Top-level keys keep their underscores (KEEP_ALIVE → keep_alive); the
// "shutdown" and "limits" tables nest one level (SHUTDOWN_GRACE →
// shutdown.grace).
func envSource(environ []string, prefix string) map[string]any {
	prefix = strings.ToUpper(prefix) + "_"
	tree := make(map[string]any)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(key, prefix))
		if name == "" {
			continue
		}

		nested := false
		for _, table := range []string{"shutdown", "limits"} {
			rest, found := strings.CutPrefix(name, table+"_")
			if !found || rest == "" {
				continue
			}
			sub, _ := tree[table].(map[string]any)
			if sub == nil {
				sub = make(map[string]any)
				tree[table] = sub
			}
			sub[rest] = envCast(table, rest, value)
			nested = true
			break
		}
		if !nested {
			tree[name] = value
		}
	}
	return tree
}

// envCast shapes env values for table entries: shutdown signal lists are
// comma-split, everything else passes through as a string.
func envCast(table, key, value string) any {
	if table == "shutdown" && key == "signals" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return value
}

// defaultShutdownSignals returns the signals that trip shutdown by
// default on this platform.
func defaultShutdownSignals() []string {
	if runtime.GOOS == "windows" {
		return nil
	}
	return []string{"term"}
}
