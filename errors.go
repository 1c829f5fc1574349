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
	"errors"
	"fmt"
	"net/http"
)

// Static errors for better error handling and testing.
// These errors should be wrapped with fmt.Errorf and %w when context is needed.
var (
	// Route construction errors
	ErrNilHandler     = errors.New("route handler cannot be nil")
	ErrInvalidMethod  = errors.New("invalid HTTP method")
	ErrInvalidPattern = errors.New("invalid route pattern")

	// Launch errors
	ErrAlreadyLaunched = errors.New("server was already launched")
	ErrSentinelAbort   = errors.New("sentinel aborted launch")
	ErrBind            = errors.New("cannot bind listen address")

	// Reverse-URI errors
	ErrMissingURIValue = errors.New("missing value for route parameter")
	ErrRouteHasNoURI   = errors.New("route pattern cannot be composed")

	// Parameter errors
	ErrParamMissing = errors.New("parameter not found")
	ErrParamInvalid = errors.New("invalid parameter value")

	// Guard errors
	ErrPayloadTooLarge = errors.New("request body exceeds the configured limit")
	ErrMalformedBody   = errors.New("request body is malformed")
	ErrMissingCookie   = errors.New("missing cookie")
	ErrUnsafeSegments  = errors.New("path segments escape the segment root")
)

// StatusError couples an error with the HTTP status that should reach
// the catcher. Data guards return it so handlers can short-circuit with
// ErrorOutcome.
type StatusError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Err)
}

// Unwrap returns the underlying cause.
func (e *StatusError) Unwrap() error { return e.Err }

// NewStatusError builds a StatusError for the given status and cause.
func NewStatusError(code int, err error) *StatusError {
	return &StatusError{Code: code, Err: err}
}

// statusOf extracts the HTTP status carried by err, defaulting to 500.
func statusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return http.StatusInternalServerError
}
