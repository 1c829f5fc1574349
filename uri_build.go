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
	"fmt"
	"net/url"
	"sort"
	"strings"

	"rivaas.dev/dispatch/uri"
)

// Values supplies typed arguments to the reverse-URI composer, keyed by
// route parameter name. Values are formatted with the same
// percent-encoding rules the forward matcher decodes with, so a
// composed URI routes back to its route.
type Values map[string]any

// BuildURI composes the origin URI that routes to r, filling dynamic
// path segments and query fields from values.
//
//   - Static segments and fields are re-encoded from their decoded
//     literals.
//   - Dynamic path values are encoded for the path part; a trailing path
//     value may be a string containing '/' or a []string of segments.
//   - Dynamic query values are encoded for the query part; a trailing
//     query value must be a url.Values, map[string]string, or
//     map[string]any and serializes form-encoded.
//
// Every dynamic parameter must have a value; anything else returns
// ErrMissingURIValue.
func (r *Route) BuildURI(values Values) (uri.Origin, error) {
	var path strings.Builder
	for _, seg := range r.pattern.Segments() {
		switch seg.Kind {
		case uri.SegmentStatic:
			// Literals are stored decoded; re-encode for the wire.
			path.WriteByte('/')
			path.WriteString(uri.EncodePathSegment(seg.Value))
		case uri.SegmentDynamic:
			value, ok := values[seg.Value]
			if !ok {
				return uri.Origin{}, fmt.Errorf("%w: <%s>", ErrMissingURIValue, seg.Value)
			}
			formatted, err := uri.FormatValue(uri.PartPath, value)
			if err != nil {
				return uri.Origin{}, fmt.Errorf("parameter <%s>: %w", seg.Value, err)
			}
			path.WriteByte('/')
			path.WriteString(formatted)
		case uri.SegmentTrailing:
			value, ok := values[seg.Value]
			if !ok {
				return uri.Origin{}, fmt.Errorf("%w: <%s..>", ErrMissingURIValue, seg.Value)
			}
			formatted, err := formatTrailing(value)
			if err != nil {
				return uri.Origin{}, fmt.Errorf("parameter <%s..>: %w", seg.Value, err)
			}
			if formatted != "" {
				path.WriteByte('/')
				path.WriteString(formatted)
			}
		}
	}
	if path.Len() == 0 {
		path.WriteByte('/')
	}

	query, err := r.buildQuery(values)
	if err != nil {
		return uri.Origin{}, err
	}

	composed := path.String()
	if query != "" {
		composed += "?" + query
	}
	origin, err := uri.ParseOrigin(composed)
	if err != nil {
		return uri.Origin{}, fmt.Errorf("%w: composed %q: %w", ErrRouteHasNoURI, composed, err)
	}
	return origin.Normalize(), nil
}

// buildQuery renders the pattern's query fields.
func (r *Route) buildQuery(values Values) (string, error) {
	fields := r.pattern.Query()
	if len(fields) == 0 {
		return "", nil
	}

	f := uri.NewFormatter(uri.PartQuery)
	first := true
	sep := func() {
		if !first {
			f.WriteRaw("&")
		}
		first = false
	}

	for _, field := range fields {
		switch field.Kind {
		case uri.FieldStatic:
			sep()
			f.WriteEncoded(field.Name)
			if field.HasValue {
				f.WriteRaw("=")
				f.WriteEncoded(field.Value)
			}
		case uri.FieldDynamic:
			param := field.Param()
			value, ok := values[param]
			if !ok {
				return "", fmt.Errorf("%w: <%s>", ErrMissingURIValue, param)
			}
			sep()
			if err := f.WritePair(field.Name, value); err != nil {
				return "", fmt.Errorf("query parameter <%s>: %w", param, err)
			}
		case uri.FieldTrailing:
			value, ok := values[field.Name]
			if !ok {
				return "", fmt.Errorf("%w: <%s..>", ErrMissingURIValue, field.Name)
			}
			encoded, err := formatTrailingQuery(value)
			if err != nil {
				return "", fmt.Errorf("query parameter <%s..>: %w", field.Name, err)
			}
			if encoded != "" {
				sep()
				f.WriteRaw(encoded)
			}
		}
	}
	return f.String(), nil
}

// formatTrailing renders a trailing path value, keeping '/' separators.
func formatTrailing(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return uri.EncodeTrailingSegments(v), nil
	case []string:
		parts := make([]string, len(v))
		for i, seg := range v {
			parts[i] = uri.EncodePathSegment(seg)
		}
		return strings.Join(parts, "/"), nil
	default:
		return uri.FormatValue(uri.PartPath, value)
	}
}

// formatTrailingQuery serializes a trailing query value form-encoded
// with deterministic key order.
func formatTrailingQuery(value any) (string, error) {
	pairs := make(map[string][]string)
	switch v := value.(type) {
	case url.Values:
		pairs = v
	case map[string]string:
		for k, val := range v {
			pairs[k] = []string{val}
		}
	case map[string]any:
		for k, val := range v {
			formatted, err := uri.FormatValue(uri.PartQuery, val)
			if err != nil {
				return "", err
			}
			pairs[k] = []string{formatted}
		}
		// Values are pre-encoded; emit below without re-encoding keys'
		// values twice by tracking which branch ran.
		return joinPairs(pairs, false), nil
	default:
		return "", fmt.Errorf("%w: %T", uri.ErrUnsupportedValue, value)
	}
	return joinPairs(pairs, true), nil
}

// joinPairs renders k=v&k=v with sorted keys. When encode is set the
// values are query-encoded; otherwise they are emitted as-is.
func joinPairs(pairs map[string][]string, encode bool) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range pairs[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(uri.EncodeQueryComponent(k))
			b.WriteByte('=')
			if encode {
				b.WriteString(uri.EncodeQueryComponent(v))
			} else {
				b.WriteString(v)
			}
		}
	}
	return b.String()
}

// URIFor composes a URI for the named route. Routes acquire names with
// Named; the router indexes them at mount time.
func (s *Server) URIFor(name string, values Values) (uri.Origin, error) {
	route, ok := s.router.Lookup(name)
	if !ok {
		return uri.Origin{}, fmt.Errorf("%w: no route named %q", ErrRouteHasNoURI, name)
	}
	return route.BuildURI(values)
}
