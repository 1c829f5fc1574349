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
	"os"
	"os/signal"
)

// ErrUnknownSignal is returned for a signal name with no OS mapping on
// this platform.
var ErrUnknownSignal = errors.New("shutdown: unknown signal name")

// Notify trips the trigger when any of the given signals arrives. It
// returns a stop function that releases the signal registration; the
// trigger stays tripped if it already fired.
func Notify(trigger *Trigger, signals ...os.Signal) (stop func()) {
	if len(signals) == 0 {
		return func() {}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)

	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			trigger.Trip()
		case <-done:
		}
	}()

	var once bool
	return func() {
		if !once {
			once = true
			signal.Stop(ch)
			close(done)
		}
	}
}
