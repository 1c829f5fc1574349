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
	"errors"
	"fmt"
)

// Static errors for better error handling and testing.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// ErrEmpty is returned when the input is empty.
	ErrEmpty = errors.New("empty URI")

	// ErrEncodedSlash is returned when a path segment contains %2F and the
	// caller did not opt in to encoded slashes.
	ErrEncodedSlash = errors.New("encoded slash (%2F) in path segment")

	// ErrInvalidUTF8 is returned when a decoded segment is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("decoded segment is not valid UTF-8")

	// Pattern errors
	ErrTrailingNotLast   = errors.New("trailing parameter must be the last path segment")
	ErrDuplicateParam    = errors.New("duplicate parameter name in route pattern")
	ErrEmptyParamName    = errors.New("parameter name cannot be empty")
	ErrInvalidParamName  = errors.New("invalid parameter name")
	ErrMissingParamValue = errors.New("missing value for route parameter")
	ErrUnknownParam      = errors.New("no such parameter in route pattern")
)

// ErrorKind classifies the malformed construct found by a parser.
type ErrorKind uint8

const (
	// KindEmpty means the input was empty.
	KindEmpty ErrorKind = iota

	// KindInvalidChar means a byte outside the grammar was found.
	KindInvalidChar

	// KindInvalidEscape means a percent escape was malformed.
	KindInvalidEscape

	// KindMissingSlash means an origin path did not start with '/'.
	KindMissingSlash

	// KindInvalidScheme means an absolute URI scheme was malformed.
	KindInvalidScheme

	// KindInvalidPort means an authority port was not a valid u16.
	KindInvalidPort

	// KindInvalidHost means an authority host was malformed.
	KindInvalidHost
)

// String returns a human-readable name for the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindEmpty:
		return "empty input"
	case KindInvalidChar:
		return "invalid character"
	case KindInvalidEscape:
		return "invalid percent escape"
	case KindMissingSlash:
		return "path must begin with '/'"
	case KindInvalidScheme:
		return "invalid scheme"
	case KindInvalidPort:
		return "invalid port"
	case KindInvalidHost:
		return "invalid host"
	default:
		return "unknown error"
	}
}

// ParseError reports the first malformed construct found while parsing a
// URI. Index is the byte offset into the source string.
type ParseError struct {
	Index int
	Kind  ErrorKind
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("uri: %s at index %d", e.Kind, e.Index)
}

// parseErr constructs a *ParseError at the given index.
func parseErr(index int, kind ErrorKind) error {
	return &ParseError{Index: index, Kind: kind}
}
