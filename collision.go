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

import "strings"

// RoutePair is a colliding pair of routes.
type RoutePair struct {
	A, B *Route
}

// CatcherPair is a colliding pair of catchers.
type CatcherPair struct {
	A, B *Catcher
}

// Collisions lists every ambiguous route and catcher pair found at
// launch. A non-empty Collisions aborts launch unless the server runs
// with permissive collisions.
type Collisions struct {
	Routes   []RoutePair
	Catchers []CatcherPair
}

// HasAny reports whether any collision was found.
func (c *Collisions) HasAny() bool {
	return len(c.Routes) > 0 || len(c.Catchers) > 0
}

// Error implements the error interface with one line per pair.
func (c *Collisions) Error() string {
	var b strings.Builder
	b.WriteString("launch aborted by collisions:")
	for _, pair := range c.Routes {
		b.WriteString("\n  route ")
		b.WriteString(pair.A.String())
		b.WriteString(" collides with ")
		b.WriteString(pair.B.String())
	}
	for _, pair := range c.Catchers {
		b.WriteString("\n  catcher ")
		b.WriteString(pair.A.String())
		b.WriteString(" collides with ")
		b.WriteString(pair.B.String())
	}
	return b.String()
}

// collectCollisions checks every pair in the route and catcher sets.
func collectCollisions(routes []*Route, catchers []*Catcher) *Collisions {
	c := &Collisions{}
	for i := 0; i < len(routes); i++ {
		for j := i + 1; j < len(routes); j++ {
			if routes[i].Collides(routes[j]) {
				c.Routes = append(c.Routes, RoutePair{A: routes[i], B: routes[j]})
			}
		}
	}
	for i := 0; i < len(catchers); i++ {
		for j := i + 1; j < len(catchers); j++ {
			if catchers[i].Collides(catchers[j]) {
				c.Catchers = append(c.Catchers, CatcherPair{A: catchers[i], B: catchers[j]})
			}
		}
	}
	return c
}
