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

import "reflect"

// stateMap is the type-keyed application state container. It is
// populated during configuration and immutable once the server launches,
// so reads take no locks.
type stateMap struct {
	values map[reflect.Type]any
}

func newStateMap() *stateMap {
	return &stateMap{values: make(map[reflect.Type]any)}
}

// set stores value under its dynamic type, replacing any previous value
// of the same type.
func (m *stateMap) set(value any) {
	m.values[reflect.TypeOf(value)] = value
}

// Manage stores value in the server's type-keyed state. One value per
// type; a second Manage of the same type replaces the first. Manage
// panics after launch: state is immutable while serving.
func (s *Server) Manage(value any) {
	if s.finalized.Load() {
		panic("dispatch: cannot Manage state after launch")
	}
	s.state.set(value)
}

// State retrieves the managed value of type T from the server.
func State[T any](s *Server) (T, bool) {
	value, ok := s.state.values[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return value.(T), true
}

// MustState is State that panics when no value of type T was managed.
func MustState[T any](s *Server) T {
	value, ok := State[T](s)
	if !ok {
		panic("dispatch: no managed state of type " + reflect.TypeFor[T]().String())
	}
	return value
}
