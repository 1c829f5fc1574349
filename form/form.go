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

// Package form decodes URL-encoded form fields into tagged structs.
//
// Fields are matched by the `form` struct tag, falling back to the
// lowercased field name. A `default` tag supplies a value for absent
// fields. Parsing is lenient by default: unknown fields are ignored.
// Strict parsing rejects unknown fields, with the sole exception of the
// "_method" override field, which request preprocessing owns.
//
// Example:
//
//	type Filter struct {
//	    Query string `form:"q"`
//	    Page  int    `form:"page" default:"1"`
//	    Tags  []string
//	}
//	var f Filter
//	err := form.Decode(values, &f, form.Strict())
package form

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/spf13/cast"
)

// Static errors for better error handling and testing.
var (
	// ErrNotStructPointer is returned when the decode target is not a
	// pointer to a struct.
	ErrNotStructPointer = errors.New("form: target must be a non-nil pointer to a struct")

	// ErrUnknownField is returned in strict mode for a form field with no
	// matching struct field.
	ErrUnknownField = errors.New("form: unknown field")

	// ErrMissingField is returned for an absent field marked required.
	ErrMissingField = errors.New("form: missing required field")

	// ErrBadValue is returned when a field value cannot be converted to
	// the target type.
	ErrBadValue = errors.New("form: cannot convert value")

	// ErrUnsupportedKind is returned for struct fields of kinds the
	// decoder does not handle.
	ErrUnsupportedKind = errors.New("form: unsupported field kind")
)

// methodOverrideField is exempt from strict unknown-field checks.
const methodOverrideField = "_method"

// Option configures a Decode call.
type Option func(*config)

type config struct {
	strict bool
	tag    string
}

// Strict rejects form fields that do not map to any struct field.
// "_method" is always tolerated.
func Strict() Option {
	return func(c *config) { c.strict = true }
}

// WithTag selects the struct tag used for field names. Default: "form".
func WithTag(tag string) Option {
	return func(c *config) { c.tag = tag }
}

// Decode binds values into the struct pointed to by out.
//
// Repeated fields bind to slices; for scalar targets the first value
// wins. Absent fields keep their current value unless a `default` tag or
// a `required` tag option applies.
func Decode(values url.Values, out any, opts ...Option) error {
	cfg := config{tag: "form"}
	for _, opt := range opts {
		opt(&cfg)
	}

	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStructPointer
	}
	elem := rv.Elem()

	fields, err := fieldMap(elem.Type(), cfg.tag)
	if err != nil {
		return err
	}

	if cfg.strict {
		for key := range values {
			if key == methodOverrideField {
				continue
			}
			if _, ok := fields[key]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownField, key)
			}
		}
	}

	for name, info := range fields {
		field := elem.Field(info.index)
		vals, present := values[name]
		if !present || len(vals) == 0 {
			if info.defaultVal != "" {
				if err := setField(field, []string{info.defaultVal}); err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			} else if info.required {
				return fmt.Errorf("%w: %q", ErrMissingField, name)
			}
			continue
		}
		if err := setField(field, vals); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// DecodeStrict is Decode with strict unknown-field checking.
func DecodeStrict(values url.Values, out any, opts ...Option) error {
	return Decode(values, out, append(opts, Strict())...)
}

// fieldInfo describes one bindable struct field.
type fieldInfo struct {
	index      int
	defaultVal string
	required   bool
}

// fieldMap indexes a struct's bindable fields by form name.
func fieldMap(t reflect.Type, tag string) (map[string]fieldInfo, error) {
	fields := make(map[string]fieldInfo, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := strings.ToLower(sf.Name)
		required := false
		if tagged, ok := sf.Tag.Lookup(tag); ok {
			parts := strings.Split(tagged, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, flag := range parts[1:] {
				if flag == "required" {
					required = true
				}
			}
		}
		fields[name] = fieldInfo{
			index:      i,
			defaultVal: sf.Tag.Get("default"),
			required:   required,
		}
	}
	return fields, nil
}

// setField assigns vals to one struct field, converting via cast.
func setField(field reflect.Value, vals []string) error {
	if field.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(field.Type(), len(vals), len(vals))
		for i, v := range vals {
			if err := setScalar(slice.Index(i), v); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}
	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if err := setScalar(ptr.Elem(), vals[0]); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}
	return setScalar(field, vals[0])
}

func setScalar(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Bool:
		b, err := cast.ToBoolE(val)
		if err != nil {
			return fmt.Errorf("%w: %q to bool", ErrBadValue, val)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(val)
		if err != nil || field.OverflowInt(n) {
			return fmt.Errorf("%w: %q to %s", ErrBadValue, val, field.Kind())
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(val)
		if err != nil || field.OverflowUint(n) {
			return fmt.Errorf("%w: %q to %s", ErrBadValue, val, field.Kind())
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(val)
		if err != nil || field.OverflowFloat(f) {
			return fmt.Errorf("%w: %q to %s", ErrBadValue, val, field.Kind())
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, field.Kind())
	}
	return nil
}
