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

package script

import "time"

// timerID is a per-script setTimeout handle. IDs start at 1 and wrap
// around skipping 0, which is reserved to mean "no timer", matching
// original_source/rekey_exe/src/js/timer.rs.
type timerID uint16

type timer struct {
	id  timerID
	due time.Time
	fn  func()
}

// timerSet holds one script context's pending timers. It is only ever
// touched from the worker goroutine, so it needs no locking.
type timerSet struct {
	nextID  timerID
	pending []timer
	now     func() time.Time
}

func newTimerSet() *timerSet {
	return &timerSet{nextID: 1, now: time.Now}
}

func (t *timerSet) allocID() timerID {
	id := t.nextID
	t.nextID++
	if t.nextID == 0 {
		t.nextID = 1
	}
	return id
}

// Add schedules fn to run after delay and returns its id.
func (t *timerSet) Add(delay time.Duration, fn func()) timerID {
	id := t.allocID()
	t.pending = append(t.pending, timer{id: id, due: t.now().Add(delay), fn: fn})
	return id
}

// Clear removes a pending timer by id, if it still exists.
func (t *timerSet) Clear(id timerID) {
	for i, tm := range t.pending {
		if tm.id == id {
			t.pending = append(t.pending[:i], t.pending[i+1:]...)
			return
		}
	}
}

// NearestDuration returns how long until the soonest pending timer is
// due, clamped to a non-negative value, or ok=false if there are none.
func (t *timerSet) NearestDuration() (d time.Duration, ok bool) {
	if len(t.pending) == 0 {
		return 0, false
	}
	now := t.now()
	nearest := t.pending[0].due
	for _, tm := range t.pending[1:] {
		if tm.due.Before(nearest) {
			nearest = tm.due
		}
	}
	d = nearest.Sub(now)
	if d < 0 {
		d = 0
	}
	return d, true
}

// RunDue invokes and removes every timer whose due time has passed. A
// timer's own fn may add new timers (e.g. to re-arm itself); those
// additions are not visited in the same RunDue call.
func (t *timerSet) RunDue() {
	now := t.now()
	var due []timer
	var remaining []timer
	for _, tm := range t.pending {
		if tm.due.After(now) {
			remaining = append(remaining, tm)
		} else {
			due = append(due, tm)
		}
	}
	t.pending = remaining
	for _, tm := range due {
		tm.fn()
	}
}
