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
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/media"
)

// methodOverrides are the methods the "_method" form override may
// produce.
var methodOverrides = map[string]bool{
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
}

// ServeHTTP drives the request lifecycle: preprocess, route, auto-HEAD,
// catcher dispatch, and response finalization.
func (s *Server) ServeHTTP(w http.ResponseWriter, hr *http.Request) {
	// Lazy finalization covers servers handed straight to a test client
	// or an external http.Server without an explicit Launch.
	if err := s.Finalize(); err != nil {
		s.logger.Error("finalization failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx := hr.Context()
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "dispatch "+hr.Method)
		defer span.End()
		hr = hr.WithContext(ctx)
	}

	req, err := newRequest(hr, s)
	if err != nil {
		// The request target failed the origin grammar; there is no
		// request to hand a catcher.
		resp := Text(http.StatusBadRequest, "400 Bad Request: malformed request target\n")
		_ = resp.write(w, false)
		return
	}
	data := newData(hr.Body, s.config.Limits)

	s.preprocess(req, data)
	for _, fairing := range s.onRequest {
		fairing(req)
	}

	wasHead := req.Method() == http.MethodHead
	resp := s.dispatch(req, data, wasHead)

	if span != nil {
		span.SetAttributes(
			attribute.Int("http.response.status_code", resp.Status()),
			attribute.String("http.route", routeTemplate(req)),
		)
	}

	s.finalize(w, req, resp, wasHead)
}

// routeTemplate names the matched route pattern for telemetry, with a
// sentinel for unmatched requests to avoid cardinality explosions.
func routeTemplate(req *Request) string {
	if req.route == nil {
		return "_unmatched"
	}
	return req.route.Pattern().String()
}

// preprocess applies the method override: a POST with a URL-encoded body
// whose leading field is "_method=<m>", for <m> in PUT, PATCH, DELETE,
// is rewritten to <m>. Only the first peekWindow bytes are inspected and
// the stream is left unconsumed.
func (s *Server) preprocess(req *Request, data *Data) {
	if req.Method() != http.MethodPost || !req.ContentType().Compatible(media.Form) {
		return
	}
	peeked := data.Peek(peekWindow)
	rest, found := bytes.CutPrefix(peeked, []byte("_method="))
	if !found {
		return
	}
	if amp := bytes.IndexByte(rest, '&'); amp >= 0 {
		rest = rest[:amp]
	}
	method := strings.ToUpper(string(rest))
	if methodOverrides[method] {
		req.setMethod(method)
	}
}

// dispatch routes the request to a response: handler success, or the
// catcher for the terminal status. The auto-HEAD retry rewrites an
// unmatched HEAD to GET exactly once.
func (s *Server) dispatch(req *Request, data *Data, wasHead bool) *Response {
	resp, status, matched := s.routeOnce(req, data)
	if resp != nil {
		return resp
	}

	if wasHead && !matched {
		req.method = http.MethodGet
		resp, status, _ = s.routeOnce(req, data)
		if resp != nil {
			return resp
		}
	}

	return s.dispatchError(status, req)
}

// routeOnce runs one pass over the matching routes. It returns the
// successful response, or (nil, status, matched) where status is the
// terminal error status — the last forward status, an explicit failure,
// or 404 when nothing matched — and matched reports whether any route
// was tried.
func (s *Server) routeOnce(req *Request, data *Data) (*Response, int, bool) {
	matched := false
	forwardStatus := http.StatusNotFound

	for route := range s.router.Matching(req) {
		matched = true
		params, trailing, ok := route.captureParams(req)
		if !ok {
			continue
		}
		req.setRoute(route, params, trailing)
		req.logger = s.logger.With(slog.String("route", route.Name()))

		outcome := s.invoke(route, req, data)
		switch {
		case outcome.IsSuccess():
			return outcome.Response(), 0, true
		case outcome.IsFailure():
			if outcome.Err() != nil {
				req.logger.Warn("handler failed", "status", outcome.Status(), "error", outcome.Err())
			}
			return nil, outcome.Status(), true
		default:
			// Forward: remember the status and try the next candidate.
			forwardStatus = outcome.Status()
		}
	}
	return nil, forwardStatus, matched
}

// invoke runs a route's guards and handler with panic isolation: a
// panicking handler becomes a 500 failure without poisoning the server.
func (s *Server) invoke(route *Route, req *Request, data *Data) (outcome Outcome) {
	defer func() {
		if recovered := recover(); recovered != nil {
			req.logger.Warn("handler panicked", "route", route.Name(), "panic", recovered)
			outcome = FailureErr(http.StatusInternalServerError,
				fmt.Errorf("handler panicked: %v", recovered))
		}
	}()

	for _, guard := range route.guards {
		if guardOutcome := guard(req); !guardOutcome.IsSuccess() {
			return guardOutcome
		}
	}
	return route.handler(req, data)
}

// dispatchError selects and runs the catcher for status. The cookie
// delta is discarded first so mutations from failed handlers never
// reach the client. A failing catcher falls back to the 500 catcher and
// then to the built-in default.
func (s *Server) dispatchError(status int, req *Request) *Response {
	req.Cookies().ResetDelta()

	if resp := s.runCatcher(status, req); resp != nil {
		return resp
	}
	if status != http.StatusInternalServerError {
		if resp := s.runCatcher(http.StatusInternalServerError, req); resp != nil {
			return resp
		}
		return builtinCatcher(http.StatusInternalServerError, req)
	}
	return builtinCatcher(status, req)
}

// runCatcher invokes the best-matching catcher for status. With no
// registered catcher the built-in default answers, which never fails;
// a registered catcher that fails or panics yields nil so the caller
// can retry with 500.
func (s *Server) runCatcher(status int, req *Request) (resp *Response) {
	catcher := s.router.CatcherFor(status, req)
	if catcher == nil {
		return builtinCatcher(status, req)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Warn("catcher panicked", "status", status, "panic", recovered)
			resp = nil
		}
	}()

	caught, err := catcher.handler(status, req)
	if err != nil || caught == nil {
		if err != nil {
			s.logger.Warn("catcher failed", "status", status, "error", err)
		}
		return nil
	}
	return caught
}

// finalize completes the response: the cookie delta becomes Set-Cookie
// headers, a default Server header is added, response fairings run, and
// a HEAD response loses its body.
func (s *Server) finalize(w http.ResponseWriter, req *Request, resp *Response, stripBody bool) {
	for _, cookie := range req.Cookies().Pending() {
		resp.Header().Add("Set-Cookie", cookie.String())
	}
	if resp.Header().Get("Server") == "" {
		resp.Header().Set("Server", serverHeader)
	}
	for _, fairing := range s.onResponse {
		fairing(req, resp)
	}

	if upgrade := resp.Upgrade(); upgrade != nil {
		s.performUpgrade(w, resp, upgrade)
		return
	}

	if err := resp.write(w, stripBody); err != nil {
		s.logger.Warn("writing response failed", "error", err)
	}
}

// performUpgrade hijacks the connection, writes the upgrade response
// head, and hands the raw connection to the upgrade handler.
func (s *Server) performUpgrade(w http.ResponseWriter, resp *Response, upgrade UpgradeFunc) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		resp.SetUpgrade(nil)
		resp.SetStatus(http.StatusInternalServerError)
		_ = resp.write(w, true)
		return
	}
	conn, rw, err := hijacker.Hijack()
	if err != nil {
		s.logger.Warn("connection hijack failed", "error", err)
		return
	}

	fmt.Fprintf(rw, "HTTP/1.1 %d %s\r\n", resp.Status(), http.StatusText(resp.Status()))
	_ = resp.header.Write(rw)
	fmt.Fprint(rw, "\r\n")
	if err := rw.Flush(); err != nil {
		_ = conn.Close()
		return
	}
	upgrade(conn, rw)
}
