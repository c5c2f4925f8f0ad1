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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTimerSet(start time.Time) (*timerSet, *time.Time) {
	clock := start
	ts := &timerSet{nextID: 1, now: func() time.Time { return clock }}
	return ts, &clock
}

func TestAddAssignsIncreasingIDsStartingAtOne(t *testing.T) {
	ts, _ := newTestTimerSet(time.Unix(0, 0))
	id1 := ts.Add(time.Second, func() {})
	id2 := ts.Add(time.Second, func() {})
	assert.Equal(t, timerID(1), id1)
	assert.Equal(t, timerID(2), id2)
}

func TestAllocIDSkipsZeroOnWrap(t *testing.T) {
	ts, _ := newTestTimerSet(time.Unix(0, 0))
	ts.nextID = 0xFFFF
	id := ts.allocID()
	assert.Equal(t, timerID(0xFFFF), id)
	next := ts.allocID()
	assert.Equal(t, timerID(1), next, "id 0 must be skipped on wraparound")
}

func TestClearRemovesPendingTimer(t *testing.T) {
	ts, _ := newTestTimerSet(time.Unix(0, 0))
	ran := false
	id := ts.Add(time.Second, func() { ran = true })
	ts.Clear(id)

	d, ok := ts.NearestDuration()
	assert.False(t, ok)
	assert.Zero(t, d)

	ts.RunDue()
	assert.False(t, ran)
}

func TestNearestDurationIsMinAcrossAllTimers(t *testing.T) {
	ts, _ := newTestTimerSet(time.Unix(0, 0))
	ts.Add(5*time.Second, func() {})
	ts.Add(1*time.Second, func() {})
	ts.Add(10*time.Second, func() {})

	d, ok := ts.NearestDuration()
	require.True(t, ok)
	assert.Equal(t, time.Second, d)
}

func TestRunDueInvokesOnlyExpiredTimers(t *testing.T) {
	ts, clock := newTestTimerSet(time.Unix(0, 0))
	var fired []string
	ts.Add(1*time.Second, func() { fired = append(fired, "a") })
	ts.Add(5*time.Second, func() { fired = append(fired, "b") })

	*clock = clock.Add(2 * time.Second)
	ts.RunDue()

	assert.Equal(t, []string{"a"}, fired)

	*clock = clock.Add(10 * time.Second)
	ts.RunDue()
	assert.Equal(t, []string{"a", "b"}, fired)
}

func TestNearestDurationClampsToZeroWhenOverdue(t *testing.T) {
	ts, clock := newTestTimerSet(time.Unix(0, 0))
	ts.Add(time.Second, func() {})
	*clock = clock.Add(10 * time.Second)

	d, ok := ts.NearestDuration()
	require.True(t, ok)
	assert.Zero(t, d)
}
