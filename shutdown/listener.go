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

package shutdown

import (
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Static errors for better error handling and testing.
var (
	// ErrListenerShutdown is returned by Accept once the trigger has
	// tripped.
	ErrListenerShutdown = errors.New("shutdown: listener is shutting down")

	// ErrShutdownTimedOut is returned by connection I/O once the mercy
	// period has elapsed and the socket was terminated.
	ErrShutdownTimedOut = errors.New("shutdown: connection timed out during shutdown")
)

// connPhase is the per-connection shutdown state.
type connPhase int32

const (
	phaseActive connPhase = iota
	phaseGrace
	phaseMercy
	phaseDead
)

// Listener wraps a net.Listener with a shutdown trigger and grace/mercy
// timeouts.
//
// Until the trigger trips, the listener is transparent. Once tripped:
//
//   - Accept stops producing connections and returns ErrListenerShutdown.
//   - Every live connection keeps full service for the grace period.
//   - When grace elapses, the connection enters the mercy phase: its
//     write side is shut down (for TCP) and an absolute deadline of
//     now+mercy is set.
//   - When mercy elapses, the socket is closed and pending or future I/O
//     fails with ErrShutdownTimedOut.
type Listener struct {
	inner   net.Listener
	trigger *Trigger
	grace   time.Duration
	mercy   time.Duration

	mu    sync.Mutex
	conns map[*gracefulConn]struct{}

	closeOnce sync.Once
}

// NewListener wraps inner. The listener starts a watcher that closes the
// accept socket and begins per-connection countdowns when the trigger
// trips.
func NewListener(inner net.Listener, trigger *Trigger, grace, mercy time.Duration) *Listener {
	l := &Listener{
		inner:   inner,
		trigger: trigger,
		grace:   grace,
		mercy:   mercy,
		conns:   make(map[*gracefulConn]struct{}),
	}
	go l.watch()
	return l
}

// watch waits for the trigger, stops the accept loop and starts each
// live connection's countdown.
func (l *Listener) watch() {
	<-l.trigger.Done()
	l.closeOnce.Do(func() { _ = l.inner.Close() })

	l.mu.Lock()
	live := make([]*gracefulConn, 0, len(l.conns))
	for c := range l.conns {
		live = append(live, c)
	}
	l.mu.Unlock()

	for _, c := range live {
		go c.countdown()
	}
}

// Accept waits for the next connection. After the trigger trips it
// always returns ErrListenerShutdown.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.inner.Accept()
	if err != nil {
		if l.trigger.Tripped() {
			return nil, ErrListenerShutdown
		}
		return nil, err
	}

	gc := &gracefulConn{Conn: conn, listener: l}
	gc.phase.Store(int32(phaseActive))

	l.mu.Lock()
	tripped := l.trigger.Tripped()
	if !tripped {
		l.conns[gc] = struct{}{}
	}
	l.mu.Unlock()

	if tripped {
		// Raced with the trigger: the watcher may already have walked the
		// connection set, so refuse the connection outright.
		_ = conn.Close()
		return nil, ErrListenerShutdown
	}
	return gc, nil
}

// Close closes the underlying listener. Live connections are unaffected.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() { err = l.inner.Close() })
	return err
}

// Addr returns the underlying listener's address.
func (l *Listener) Addr() net.Addr {
	return l.inner.Addr()
}

// ConnCount returns the number of live connections.
func (l *Listener) ConnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// forget removes a closed connection from the live set.
func (l *Listener) forget(c *gracefulConn) {
	l.mu.Lock()
	delete(l.conns, c)
	l.mu.Unlock()
}

// gracefulConn is a tracked connection moving through
// Active → Grace → Mercy → Dead.
type gracefulConn struct {
	net.Conn
	listener  *Listener
	phase     atomic.Int32
	closeOnce sync.Once
}

// countdown drives the connection's shutdown phases. It runs once, after
// the trigger trips.
func (c *gracefulConn) countdown() {
	c.phase.CompareAndSwap(int32(phaseActive), int32(phaseGrace))

	graceTimer := time.NewTimer(c.listener.grace)
	defer graceTimer.Stop()
	<-graceTimer.C

	if connPhase(c.phase.Load()) == phaseDead {
		return
	}
	c.phase.Store(int32(phaseMercy))

	// Initiate protocol-level shutdown: no more writes, and everything
	// still pending must finish within the mercy window.
	if tcp, ok := c.Conn.(*net.TCPConn); ok {
		_ = tcp.CloseWrite()
	}
	_ = c.Conn.SetDeadline(time.Now().Add(c.listener.mercy))

	mercyTimer := time.NewTimer(c.listener.mercy)
	defer mercyTimer.Stop()
	<-mercyTimer.C

	if connPhase(c.phase.Load()) != phaseDead {
		c.phase.Store(int32(phaseDead))
		c.closeOnce.Do(func() {
			c.listener.forget(c)
			_ = c.Conn.Close()
		})
	}
}

// Read reads from the connection, mapping post-mercy failures to
// ErrShutdownTimedOut.
func (c *gracefulConn) Read(b []byte) (int, error) {
	n, err := c.Conn.Read(b)
	return n, c.mapErr(err)
}

// Write writes to the connection, mapping post-mercy failures to
// ErrShutdownTimedOut.
func (c *gracefulConn) Write(b []byte) (int, error) {
	n, err := c.Conn.Write(b)
	return n, c.mapErr(err)
}

// Close closes the connection and unregisters it.
func (c *gracefulConn) Close() error {
	c.phase.Store(int32(phaseDead))
	var err error
	c.closeOnce.Do(func() {
		c.listener.forget(c)
		err = c.Conn.Close()
	})
	return err
}

// mapErr translates I/O errors caused by the mercy deadline or the
// post-mercy close into ErrShutdownTimedOut.
func (c *gracefulConn) mapErr(err error) error {
	if err == nil {
		return nil
	}
	phase := connPhase(c.phase.Load())
	if phase == phaseDead && c.listener.trigger.Tripped() {
		return ErrShutdownTimedOut
	}
	if phase == phaseMercy && errors.Is(err, os.ErrDeadlineExceeded) {
		return ErrShutdownTimedOut
	}
	return err
}

var _ net.Listener = (*Listener)(nil)
