// Copyright 2026 rekeyhq
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

// Package inputlog correlates the WH_KEYBOARD hook's events (which
// carry a vkey code and direction but no device identity) with the Raw
// Input API's events (which carry device identity but arrive on a separate
// message, slightly before or after the hook fires). Grounded on
// original_source/rekey_exe/src/input_log.rs.
package inputlog

import (
	"sync"
	"time"

	"github.com/rekeyhq/rekey/internal/device"
)

// MaxEntries bounds the ring; oldest entries are evicted first.
const MaxEntries = 100

// Window is how long a raw-input sighting stays eligible to satisfy a hook
// lookup for the same (vkey, direction) pair.
const Window = time.Second

// Direction mirrors the hook's key-down/key-up distinction.
type Direction int

const (
	Down Direction = iota
	Up
)

type entry struct {
	at        time.Time
	device    *device.Device
	vkeyCode  uint16
	direction Direction
}

// Log is a bounded FIFO of recent raw-input sightings.
type Log struct {
	mu      sync.Mutex
	entries []entry
	now     func() time.Time
}

// New returns an empty log using the real wall clock.
func New() *Log {
	return &Log{now: time.Now}
}

// Add records a raw-input sighting, evicting the oldest entry once the log
// exceeds MaxEntries.
func (l *Log) Add(d *device.Device, vkeyCode uint16, dir Direction) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry{at: l.now(), device: d, vkeyCode: vkeyCode, direction: dir})
	for len(l.entries) > MaxEntries {
		l.entries = l.entries[1:]
	}
}

// GetDevice returns and removes the first recorded sighting matching
// vkeyCode and dir that is younger than Window, or nil if none qualifies.
// The match is removed so a burst of identical key events doesn't keep
// resolving to the same stale sighting.
func (l *Log) GetDevice(vkeyCode uint16, dir Direction) *device.Device {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for i, e := range l.entries {
		if e.vkeyCode != vkeyCode || e.direction != dir {
			continue
		}
		if now.Sub(e.at) >= Window {
			continue
		}
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
		return e.device
	}
	return nil
}

// Len reports how many entries are currently buffered. Exported for tests.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
