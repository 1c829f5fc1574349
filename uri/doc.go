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

// Package uri implements the URI types used by the dispatch core.
//
// Three grammars from RFC 3986 are supported:
//
//   - Origin: an absolute-path request target, "/path?query".
//   - Authority: "userinfo@host:port".
//   - Absolute: "scheme:[//authority][path][?query]".
//
// Parsed values keep string slices into the source text; nothing is
// copied during parsing. All parsers reject any byte outside the ABNF of
// the respective grammar and report the offending index.
//
// Route patterns extend the Origin grammar with dynamic tokens:
//
//	/users/<id>          one dynamic segment
//	/static/<path..>     trailing segments (zero or more)
//	/search?q=<term>     dynamic query value
//
// ParsePattern classifies every path segment and query field and computes
// the pattern's path and query colors, which drive default route ranking.
//
// The package also provides the reverse side: a Formatter that converts
// typed Go values into correctly percent-encoded path or query fragments,
// so that composed URIs round-trip through the origin parser.
package uri
