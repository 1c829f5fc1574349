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

// Sentinel is a launch-time check attached to a route. Sentinels run
// after finalization and before the listener binds; any sentinel that
// reports abort stops the launch, so misconfiguration surfaces before
// the first request is served.
//
// The classic example is a handler whose responses need a collaborator
// registered on the server (a template engine, a database pool): its
// sentinel checks the managed state and aborts when the collaborator is
// absent.
type Sentinel interface {
	// Abort inspects the finalized server and reports whether launch
	// must stop.
	Abort(s *Server) bool
}

// SentinelFunc adapts a function to the Sentinel interface.
type SentinelFunc func(s *Server) bool

// Abort implements Sentinel.
func (f SentinelFunc) Abort(s *Server) bool { return f(s) }

// RequireState returns a sentinel that aborts launch unless a value of
// type T was managed on the server.
func RequireState[T any]() Sentinel {
	return SentinelFunc(func(s *Server) bool {
		_, ok := State[T](s)
		return !ok
	})
}
