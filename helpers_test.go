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

package dispatch

import (
	"rivaas.dev/dispatch/media"
	"rivaas.dev/dispatch/uri"
)

// mustOrigin parses a literal origin for tests.
func mustOrigin(s string) uri.Origin {
	return uri.MustParseOrigin(s)
}

// mustMedia parses a literal media type for tests.
func mustMedia(s string) media.Type {
	return media.MustParse(s)
}
