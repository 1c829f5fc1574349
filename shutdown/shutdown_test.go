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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigger_Monotonic(t *testing.T) {
	trigger := NewTrigger()
	assert.False(t, trigger.Tripped())

	trigger.Trip()
	assert.True(t, trigger.Tripped())

	// Tripping again must not panic or reset.
	trigger.Trip()
	assert.True(t, trigger.Tripped())

	select {
	case <-trigger.Done():
	default:
		t.Fatal("Done channel must be closed after Trip")
	}
}

func TestTrigger_ManyObservers(t *testing.T) {
	trigger := NewTrigger()
	results := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		go func() {
			<-trigger.Done()
			results <- struct{}{}
		}()
	}
	trigger.Trip()
	for i := 0; i < 8; i++ {
		select {
		case <-results:
		case <-time.After(time.Second):
			t.Fatal("observer did not see the trip")
		}
	}
}

func TestListener_AcceptStopsOnTrip(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	trigger := NewTrigger()
	l := NewListener(inner, trigger, 50*time.Millisecond, 50*time.Millisecond)
	defer l.Close()

	acceptErr := make(chan error, 1)
	go func() {
		_, err := l.Accept()
		acceptErr <- err
	}()

	trigger.Trip()
	select {
	case err := <-acceptErr:
		assert.ErrorIs(t, err, ErrListenerShutdown)
	case <-time.After(time.Second):
		t.Fatal("Accept did not unblock after trip")
	}
}

func TestListener_ConnTracked(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	trigger := NewTrigger()
	l := NewListener(inner, trigger, time.Second, time.Second)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", inner.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	var server net.Conn
	select {
	case server = <-accepted:
	case <-time.After(time.Second):
		t.Fatal("no connection accepted")
	}
	assert.Equal(t, 1, l.ConnCount())

	require.NoError(t, server.Close())
	assert.Equal(t, 0, l.ConnCount())
}

// TestListener_GraceMercyBound verifies the shutdown bound: after
// trigger + grace + mercy, a blocked read resolves with
// ErrShutdownTimedOut and no connections remain.
func TestListener_GraceMercyBound(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	const grace, mercy = 40 * time.Millisecond, 40 * time.Millisecond
	trigger := NewTrigger()
	l := NewListener(inner, trigger, grace, mercy)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", inner.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted

	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		_, err := server.Read(buf)
		readErr <- err
	}()

	start := time.Now()
	trigger.Trip()

	select {
	case err := <-readErr:
		elapsed := time.Since(start)
		assert.ErrorIs(t, err, ErrShutdownTimedOut)
		assert.GreaterOrEqual(t, elapsed, grace, "read must survive the grace period")
		assert.Less(t, elapsed, grace+mercy+500*time.Millisecond,
			"read must resolve soon after grace+mercy")
	case <-time.After(2 * time.Second):
		t.Fatal("read did not resolve within the shutdown bound")
	}
}

// TestListener_ServiceDuringGrace verifies that I/O keeps working during
// the grace period.
func TestListener_ServiceDuringGrace(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	trigger := NewTrigger()
	l := NewListener(inner, trigger, 300*time.Millisecond, 300*time.Millisecond)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := l.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	client, err := net.Dial("tcp", inner.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	server := <-accepted
	trigger.Trip()

	_, err = client.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := server.Read(buf)
	require.NoError(t, err, "reads during the grace period must succeed")
	assert.Equal(t, "ping", string(buf[:n]))
}

func TestParseSignal(t *testing.T) {
	sig, err := ParseSignal("int")
	require.NoError(t, err)
	assert.NotNil(t, sig)

	_, err = ParseSignal("bogus")
	assert.ErrorIs(t, err, ErrUnknownSignal)
}

func TestNotify_StopReleases(t *testing.T) {
	trigger := NewTrigger()
	sig, err := ParseSignal("int")
	require.NoError(t, err)

	stop := Notify(trigger, sig)
	stop()
	stop() // Idempotent.
	assert.False(t, trigger.Tripped())
}

func TestListener_CloseIdempotent(t *testing.T) {
	inner, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	trigger := NewTrigger()
	l := NewListener(inner, trigger, time.Second, time.Second)
	require.NoError(t, l.Close())
	assert.NoError(t, l.Close())

	_, err = l.Accept()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrListenerShutdown),
		"a plain close is not a shutdown")
}
