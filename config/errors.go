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

import "errors"

// Static errors for better error handling and testing.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// ErrInvalidValue is returned when a configuration value has the
	// wrong type or an out-of-range value.
	ErrInvalidValue = errors.New("config: invalid value")

	// ErrBadFile is returned when the configuration file cannot be parsed.
	ErrBadFile = errors.New("config: malformed configuration file")

	// ErrBadTree is returned when the merged configuration tree cannot
	// bind to the Config struct.
	ErrBadTree = errors.New("config: cannot bind configuration tree")

	// ErrInsecureSecretKey is returned when the release profile runs
	// with a zero secret key.
	ErrInsecureSecretKey = errors.New("config: release profile requires a non-zero secret_key")
)
