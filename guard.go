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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"rivaas.dev/dispatch/form"
	"rivaas.dev/dispatch/media"
)

// RequestGuard validates request metadata before the handler runs.
// Guards attached to a route run in declaration order; the first guard
// that does not succeed aborts the chain. A Forward outcome sends the
// request to the next matching route; a Failure goes straight to the
// catcher.
type RequestGuard func(r *Request) Outcome

// NeedsContentType forwards the request unless it carries a
// Content-Type compatible with t.
func NeedsContentType(t media.Type) RequestGuard {
	return func(r *Request) Outcome {
		if r.ContentType().Compatible(t) {
			return Outcome{kind: outcomeSuccess}
		}
		return Forward(nil, http.StatusUnsupportedMediaType)
	}
}

// NeedsCookie fails with 401 unless the named cookie is present.
func NeedsCookie(name string) RequestGuard {
	return func(r *Request) Outcome {
		if _, ok := r.Cookies().Get(name); ok {
			return Outcome{kind: outcomeSuccess}
		}
		return FailureErr(http.StatusUnauthorized, fmt.Errorf("%w: %q", ErrMissingCookie, name))
	}
}

// NeedsQuery forwards the request unless the named query field is
// present, letting a less specific route take over.
func NeedsQuery(name string) RequestGuard {
	return func(r *Request) Outcome {
		if _, ok := r.Query(name); ok {
			return Outcome{kind: outcomeSuccess}
		}
		return Forward(nil, http.StatusNotFound)
	}
}

// Data guards. Each consumes the request body under the configured limit
// for its kind and returns a StatusError on failure: 413 when the body
// exceeds the limit, 400 when it cannot be parsed. At most one data
// guard may run per request.

// JSON decodes the body as JSON into T.
func JSON[T any](r *Request, d *Data) (T, error) {
	var out T
	body, err := d.ReadAll("json")
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, NewStatusError(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrMalformedBody, err))
	}
	return out, nil
}

// MsgPack decodes the body as MessagePack into T.
func MsgPack[T any](r *Request, d *Data) (T, error) {
	var out T
	body, err := d.ReadAll("msgpack")
	if err != nil {
		return out, err
	}
	if err := msgpack.Unmarshal(body, &out); err != nil {
		return out, NewStatusError(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrMalformedBody, err))
	}
	return out, nil
}

// YAML decodes the body as YAML into T.
func YAML[T any](r *Request, d *Data) (T, error) {
	var out T
	body, err := d.ReadAll("yaml")
	if err != nil {
		return out, err
	}
	if err := yaml.Unmarshal(body, &out); err != nil {
		return out, NewStatusError(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrMalformedBody, err))
	}
	return out, nil
}

// FormData decodes a URL-encoded body into T via the form package.
// Lenient by default; pass form.Strict() to reject unknown fields.
func FormData[T any](r *Request, d *Data, opts ...form.Option) (T, error) {
	var out T
	values, err := formValues(r, d)
	if err != nil {
		return out, err
	}
	if err := form.Decode(values, &out, opts...); err != nil {
		return out, NewStatusError(http.StatusUnprocessableEntity, err)
	}
	return out, nil
}

// FormQuery decodes the request's query string into T, independent of
// the body.
func FormQuery[T any](r *Request, opts ...form.Option) (T, error) {
	var out T
	if err := form.Decode(r.QueryValues(), &out, opts...); err != nil {
		return out, NewStatusError(http.StatusUnprocessableEntity, err)
	}
	return out, nil
}

// Bytes reads the raw body under the "bytes" limit.
func Bytes(r *Request, d *Data) ([]byte, error) {
	return d.ReadAll("bytes")
}

// Str reads the body as a string under the "string" limit.
func Str(r *Request, d *Data) (string, error) {
	body, err := d.ReadAll("string")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// formValues parses the URL-encoded body, memoized in the request-local
// cache so every guard on the request shares one parse.
type formValuesKey struct{}

func formValues(r *Request, d *Data) (url.Values, error) {
	type result struct {
		values url.Values
		err    error
	}
	res := Local(r, formValuesKey{}, func() result {
		body, err := d.ReadAll("form")
		if err != nil {
			return result{err: err}
		}
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return result{err: NewStatusError(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrMalformedBody, err))}
		}
		return result{values: values}
	})
	return res.values, res.err
}
