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

//go:build unix

package shutdown

import (
	"fmt"
	"os"
	"syscall"
)

// signalsByName maps configuration signal names to OS signals.
var signalsByName = map[string]os.Signal{
	"term": syscall.SIGTERM,
	"int":  syscall.SIGINT,
	"hup":  syscall.SIGHUP,
	"quit": syscall.SIGQUIT,
	"usr1": syscall.SIGUSR1,
	"usr2": syscall.SIGUSR2,
}

// ParseSignal resolves a configuration signal name ("term", "hup", ...)
// to an OS signal.
func ParseSignal(name string) (os.Signal, error) {
	sig, ok := signalsByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, name)
	}
	return sig, nil
}
