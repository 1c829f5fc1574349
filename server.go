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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/shutdown"
	"rivaas.dev/dispatch/uri"
)

// serverHeader is the default Server response header value.
const serverHeader = "dispatch"

// Option defines functional options for server configuration.
type Option func(*Server)

// Server assembles the immutable launch bundle: router, catchers,
// configuration, managed state, and the shutdown trigger. Configuration
// happens before launch; after finalization the bundle is immutable and
// requests are served without locks.
//
// Example:
//
//	srv := dispatch.MustNew()
//	srv.MustMount("/", dispatch.Get("/hello", hello))
//	if err := srv.Launch(context.Background()); err != nil {
//	    os.Exit(dispatch.ExitCode(err))
//	}
type Server struct {
	config config.Config
	logger *slog.Logger
	router *Router
	state  *stateMap

	tracer     trace.Tracer
	enableH2C  bool
	permissive bool

	onRequest  []func(*Request)
	onResponse []func(*Request, *Response)

	trigger      *shutdown.Trigger
	finalized    atomic.Bool
	finalizeOnce sync.Once
	finalizeErr  error
	launched     atomic.Bool
}

// New creates a server with the given options. Without WithConfig the
// debug-profile defaults apply.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		config:  config.Default(config.ProfileDebug),
		router:  NewRouter(),
		state:   newStateMap(),
		trigger: shutdown.NewTrigger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = newConfigLogger(s.config)
	}
	return s, nil
}

// MustNew is New that panics on configuration errors.
func MustNew(opts ...Option) *Server {
	s, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("dispatch.MustNew: %v", err))
	}
	return s
}

// WithConfig installs a loaded configuration.
func WithConfig(cfg config.Config) Option {
	return func(s *Server) { s.config = cfg }
}

// WithLogger overrides the configuration-derived logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithTracer enables per-request spans on the given tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) { s.tracer = tracer }
}

// WithH2C enables HTTP/2 cleartext support. Only use in development or
// behind a trusted load balancer.
func WithH2C(enable bool) Option {
	return func(s *Server) { s.enableH2C = enable }
}

// WithPermissiveCollisions downgrades route and catcher collisions from
// launch aborts to warnings. Colliding routes are tried in registration
// order.
func WithPermissiveCollisions() Option {
	return func(s *Server) { s.permissive = true }
}

// Config returns the server configuration.
func (s *Server) Config() config.Config { return s.config }

// Logger returns the server's base logger.
func (s *Server) Logger() *slog.Logger { return s.logger }

// Router returns the server's router.
func (s *Server) Router() *Router { return s.router }

// Shutdown trips the graceful-shutdown trigger. It is safe to call from
// any goroutine, any number of times.
func (s *Server) Shutdown() { s.trigger.Trip() }

// Mount registers routes beneath a static base path. The base prefixes
// every route pattern; route ranks are recomputed for the mounted
// pattern unless explicitly set.
func (s *Server) Mount(base string, routes ...*Route) error {
	if s.finalized.Load() {
		return ErrAlreadyLaunched
	}
	baseOrigin, err := uri.ParseOrigin(base)
	if err != nil {
		return fmt.Errorf("%w: mount point %q: %w", ErrInvalidPattern, base, err)
	}
	for _, route := range routes {
		mounted, err := route.withBase(baseOrigin)
		if err != nil {
			return fmt.Errorf("mounting %s at %q: %w", route, base, err)
		}
		s.router.add(mounted)
		s.logger.Debug("route mounted", "route", mounted.String(), "rank", mounted.rank)
	}
	return nil
}

// MustMount is Mount that panics on error, returning the server for
// chaining.
func (s *Server) MustMount(base string, routes ...*Route) *Server {
	if err := s.Mount(base, routes...); err != nil {
		panic("dispatch.MustMount: " + err.Error())
	}
	return s
}

// Register installs catchers beneath a static, query-free base path.
func (s *Server) Register(base string, catchers ...*Catcher) error {
	if s.finalized.Load() {
		return ErrAlreadyLaunched
	}
	baseOrigin, err := uri.ParseOrigin(base)
	if err != nil {
		return fmt.Errorf("%w: catcher base %q: %w", ErrInvalidPattern, base, err)
	}
	for _, catcher := range catchers {
		scoped, err := catcher.withBase(baseOrigin)
		if err != nil {
			return err
		}
		s.router.addCatcher(scoped)
		s.logger.Debug("catcher registered", "catcher", scoped.String())
	}
	return nil
}

// MustRegister is Register that panics on error, returning the server
// for chaining.
func (s *Server) MustRegister(base string, catchers ...*Catcher) *Server {
	if err := s.Register(base, catchers...); err != nil {
		panic("dispatch.MustRegister: " + err.Error())
	}
	return s
}

// OnRequest adds a request fairing, run after preprocessing and before
// routing.
func (s *Server) OnRequest(fn func(*Request)) {
	s.onRequest = append(s.onRequest, fn)
}

// OnResponse adds a response fairing, run during finalization before the
// response is written.
func (s *Server) OnResponse(fn func(*Request, *Response)) {
	s.onResponse = append(s.onResponse, fn)
}

// Finalize freezes the server: collision detection runs, sentinels may
// abort, and further Mount/Register/Manage calls fail. Finalize is
// idempotent and runs implicitly on launch or on the first request.
func (s *Server) Finalize() error {
	s.finalizeOnce.Do(func() {
		s.finalized.Store(true)

		if collisions := s.router.collisions(); collisions.HasAny() {
			if !s.permissive {
				s.finalizeErr = collisions
				return
			}
			s.logger.Warn("collisions tolerated by permissive mode", "detail", collisions.Error())
		}

		for _, route := range s.router.Routes() {
			for _, sentinel := range route.sentinels {
				if sentinel.Abort(s) {
					s.finalizeErr = fmt.Errorf("%w: route %s", ErrSentinelAbort, route)
					return
				}
			}
		}
	})
	return s.finalizeErr
}

// Launch finalizes the server, binds the configured address and serves
// until the shutdown trigger trips or the context is canceled. It
// returns nil after a clean shutdown and a non-nil error on launch
// failure; map the result to a process exit status with ExitCode.
func (s *Server) Launch(ctx context.Context) error {
	if err := s.Finalize(); err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", s.config.Address, s.config.Port)
	inner, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrBind, addr, err)
	}
	return s.Serve(ctx, inner)
}

// Serve runs the server on an existing listener. See Launch.
func (s *Server) Serve(ctx context.Context, inner net.Listener) error {
	if s.launched.Swap(true) {
		return ErrAlreadyLaunched
	}
	if err := s.Finalize(); err != nil {
		_ = inner.Close()
		return err
	}

	if s.config.Workers > 0 {
		runtime.GOMAXPROCS(int(s.config.Workers))
	}

	grace := time.Duration(s.config.Shutdown.Grace) * time.Second
	mercy := time.Duration(s.config.Shutdown.Mercy) * time.Second
	listener := shutdown.NewListener(inner, s.trigger, grace, mercy)

	stopSignals := s.notifySignals()
	defer stopSignals()

	go func() {
		select {
		case <-ctx.Done():
			s.trigger.Trip()
		case <-s.trigger.Done():
		}
	}()

	handler := http.Handler(s)
	if s.enableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
		s.logger.Warn("h2c enabled; use only in dev or behind a trusted LB")
	}

	httpServer := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Duration(s.config.KeepAlive) * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	if s.config.KeepAlive == 0 {
		httpServer.SetKeepAlivesEnabled(false)
	}

	s.logger.Info("server started",
		"address", listener.Addr().String(),
		"profile", s.config.Profile,
		"routes", len(s.router.Routes()),
	)

	err := httpServer.Serve(listener)
	if errors.Is(err, shutdown.ErrListenerShutdown) || errors.Is(err, http.ErrServerClosed) {
		// The trigger tripped: drain in-flight requests within the
		// grace+mercy bound, then force-close anything left.
		drainCtx, cancel := context.WithTimeout(context.Background(), grace+mercy)
		defer cancel()
		if err := httpServer.Shutdown(drainCtx); err != nil {
			_ = httpServer.Close()
			s.logger.Warn("connections timed out during shutdown", "error", err)
			return shutdown.ErrShutdownTimedOut
		}
		s.logger.Info("server stopped cleanly")
		return nil
	}
	return err
}

// notifySignals wires the configured OS signals to the trigger.
func (s *Server) notifySignals() func() {
	var signals []os.Signal
	if s.config.Ctrlc {
		if sig, err := shutdown.ParseSignal("int"); err == nil {
			signals = append(signals, sig)
		}
	}
	for _, name := range s.config.Shutdown.Signals {
		sig, err := shutdown.ParseSignal(name)
		if err != nil {
			s.logger.Warn("ignoring unknown shutdown signal", "signal", name)
			continue
		}
		signals = append(signals, sig)
	}
	return shutdown.Notify(s.trigger, signals...)
}

// ExitCode maps a Launch result to a process exit status: 0 for a clean
// shutdown, non-zero for launch failures.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
