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

// Package dispatch is a typed HTTP routing and dispatch engine.
//
// Applications declare endpoints as routes: a method, an origin pattern
// with dynamic segments, and a handler returning a tri-state Outcome.
// The server matches incoming requests across method, path, query, and
// media type, extracts typed values from URI segments and bodies, and
// invokes the winning handler. Error statuses dispatch to catchers
// scoped by status code and base path.
//
//	srv := dispatch.MustNew()
//	srv.MustMount("/", dispatch.Get("/hello/<name>", func(r *dispatch.Request, _ *dispatch.Data) dispatch.Outcome {
//	    return dispatch.Success(dispatch.Text(http.StatusOK, "Hello, "+r.Param("name")+"!"))
//	}))
//	err := srv.Launch(context.Background())
//	os.Exit(dispatch.ExitCode(err))
//
// # Routing
//
// Route patterns extend origin URIs with dynamic tokens: <name> matches
// one segment, <name..> matches the rest of the path. Each pattern is
// classified once at construction; the matcher consumes the classified
// segment vectors. Among matching routes the lowest rank wins; default
// ranks derive from how static a pattern's path and query are, so more
// specific routes are tried first. Ambiguous pairs — routes that could
// match the same request at the same rank — are collisions and abort
// launch.
//
// # Outcomes
//
// Handlers and guards return Success, Failure, or Forward. Forward
// passes the request (body intact) to the next matching route; Failure
// dispatches the catcher for its status. Handler panics are caught and
// become 500 failures.
//
// # Shutdown
//
// Launch serves until the process receives a configured signal or the
// context is canceled. In-flight connections get a grace period of full
// service and a mercy period to wind down before their sockets are
// closed.
package dispatch
