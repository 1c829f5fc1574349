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

// Package shutdown bounds the lifetime of in-flight connections during
// graceful server shutdown.
//
// A Trigger is a monotonic, observable shutdown flag: once tripped it
// never resets, and any number of observers may poll Tripped or select
// on Done. The Listener wraps a net.Listener so that a tripped trigger
// stops new connections immediately and walks each live connection
// through a grace period (full service), then a mercy period
// (protocol-level wind-down), then termination.
package shutdown

import "sync"

// Trigger is a one-way shutdown flag shared by every connection and the
// accept loop. The zero value is not usable; call NewTrigger.
type Trigger struct {
	once sync.Once
	done chan struct{}
}

// NewTrigger returns an untripped trigger.
func NewTrigger() *Trigger {
	return &Trigger{done: make(chan struct{})}
}

// Trip trips the trigger. Tripping is idempotent and never blocks.
func (t *Trigger) Trip() {
	t.once.Do(func() { close(t.done) })
}

// Tripped reports whether the trigger has fired. Once true, it is true
// forever.
func (t *Trigger) Tripped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the trigger trips. The same
// channel is handed to every observer.
func (t *Trigger) Done() <-chan struct{} {
	return t.done
}
