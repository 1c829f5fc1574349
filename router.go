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
	"iter"
	"sort"
)

// Router indexes routes by method with each bucket sorted ascending by
// rank, and catchers by status code with longest-base-first selection.
// After Finalize the router is immutable and freely shared by reference;
// matching takes no locks.
type Router struct {
	routes   map[string][]*Route
	catchers map[int][]*Catcher
	names    map[string]*Route
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{
		routes:   make(map[string][]*Route),
		catchers: make(map[int][]*Catcher),
		names:    make(map[string]*Route),
	}
}

// add indexes one route, keeping its bucket rank-sorted. Insertion is
// stable: among equal ranks, registration order is preserved.
func (r *Router) add(route *Route) {
	bucket := r.routes[route.method]
	at := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].rank > route.rank
	})
	bucket = append(bucket, nil)
	copy(bucket[at+1:], bucket[at:])
	bucket[at] = route
	r.routes[route.method] = bucket

	if route.name != "" {
		r.names[route.name] = route
	}
}

// addCatcher indexes one catcher, keeping its bucket sorted by base
// segment count descending so the longest base wins.
func (r *Router) addCatcher(catcher *Catcher) {
	bucket := r.catchers[catcher.code]
	at := sort.Search(len(bucket), func(i int) bool {
		return bucket[i].base.SegmentCount() < catcher.base.SegmentCount()
	})
	bucket = append(bucket, nil)
	copy(bucket[at+1:], bucket[at:])
	bucket[at] = catcher
	r.catchers[catcher.code] = bucket
}

// Routes returns every registered route.
func (r *Router) Routes() []*Route {
	var all []*Route
	for _, bucket := range r.routes {
		all = append(all, bucket...)
	}
	return all
}

// Catchers returns every registered catcher.
func (r *Router) Catchers() []*Catcher {
	var all []*Catcher
	for _, bucket := range r.catchers {
		all = append(all, bucket...)
	}
	return all
}

// Lookup returns the route registered under the given name.
func (r *Router) Lookup(name string) (*Route, bool) {
	route, ok := r.names[name]
	return route, ok
}

// Matching lazily yields the routes that match the request, in ascending
// rank order, merging the method bucket with the wildcard bucket. The
// matcher runs only as far as the consumer iterates.
func (r *Router) Matching(req *Request) iter.Seq[*Route] {
	return func(yield func(*Route) bool) {
		method := r.routes[req.Method()]
		wild := r.routes[MethodAny]

		i, j := 0, 0
		for i < len(method) || j < len(wild) {
			var next *Route
			switch {
			case j >= len(wild):
				next, i = method[i], i+1
			case i >= len(method):
				next, j = wild[j], j+1
			case method[i].rank <= wild[j].rank:
				next, i = method[i], i+1
			default:
				next, j = wild[j], j+1
			}
			if !next.Matches(req) {
				continue
			}
			if !yield(next) {
				return
			}
		}
	}
}

// CatcherFor selects the best catcher for a status: among status-exact
// and default catchers whose base covers the request, the one with the
// longest base wins; a status-exact catcher beats a default with the
// same base length.
func (r *Router) CatcherFor(status int, req *Request) *Catcher {
	best := matchCatcher(r.catchers[status], status, req)
	fallback := matchCatcher(r.catchers[0], status, req)
	switch {
	case best == nil:
		return fallback
	case fallback == nil:
		return best
	case fallback.base.SegmentCount() > best.base.SegmentCount():
		return fallback
	default:
		return best
	}
}

// matchCatcher returns the first (longest-base) matching catcher in a
// bucket.
func matchCatcher(bucket []*Catcher, status int, req *Request) *Catcher {
	for _, c := range bucket {
		if c.Matches(status, req) {
			return c
		}
	}
	return nil
}

// collisions checks the full route and catcher sets.
func (r *Router) collisions() *Collisions {
	return collectCollisions(r.Routes(), r.Catchers())
}
