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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	contexts []*Context
	err      error
	loads    int
}

func (f *fakeLoader) Load(dir string) ([]*Context, error) {
	f.loads++
	return f.contexts, f.err
}

func runWorker(t *testing.T, w *Worker) {
	t.Helper()
	go w.Run()
	t.Cleanup(w.Exit)
}

func TestLoadReplacesContextsAndClosesOld(t *testing.T) {
	closed := false
	ctx1 := &Context{Name: "one", Timers: newTimerSet(), Close: func() { closed = true }}
	loader := &fakeLoader{contexts: []*Context{ctx1}}
	w := NewWorker("scripts", loader, nil)
	runWorker(t, w)

	require.NoError(t, w.Load())

	ctx2 := &Context{Name: "two", Timers: newTimerSet()}
	loader.contexts = []*Context{ctx2}
	require.NoError(t, w.Load())
	assert.True(t, closed)
}

func TestLoadPropagatesLoaderError(t *testing.T) {
	loader := &fakeLoader{err: errors.New("boom")}
	w := NewWorker("scripts", loader, nil)
	runWorker(t, w)

	err := w.Load()
	assert.Error(t, err)
}

func TestHandleInputDispatchesToMatchingRegistration(t *testing.T) {
	called := false
	reg := &Registration{
		Device:    AnyDevice,
		Keys:      AllKeys,
		Intercept: true,
		Callback: func(e Event) (bool, error) {
			called = true
			return true, nil
		},
	}
	ctx := &Context{Name: "one", Registrations: []*Registration{reg}, Timers: newTimerSet()}
	loader := &fakeLoader{contexts: []*Context{ctx}}
	w := NewWorker("scripts", loader, nil)
	runWorker(t, w)
	require.NoError(t, w.Load())

	skip := w.HandleInput(Event{VKeyCode: 0x41, Direction: DirectionDown})
	assert.True(t, called)
	assert.True(t, skip)
}

func TestHandleInputSkipsIfAnyHandlerTrue(t *testing.T) {
	regFalse := &Registration{Device: AnyDevice, Keys: AllKeys, Intercept: true, Callback: func(Event) (bool, error) { return false, nil }}
	regTrue := &Registration{Device: AnyDevice, Keys: AllKeys, Intercept: true, Callback: func(Event) (bool, error) { return true, nil }}
	ctx := &Context{Name: "one", Registrations: []*Registration{regFalse, regTrue}, Timers: newTimerSet()}
	loader := &fakeLoader{contexts: []*Context{ctx}}
	w := NewWorker("scripts", loader, nil)
	runWorker(t, w)
	require.NoError(t, w.Load())

	skip := w.HandleInput(Event{VKeyCode: 0x41})
	assert.True(t, skip)
}

func TestHandleInputIgnoresTruthyReturnWhenInterceptFalse(t *testing.T) {
	reg := &Registration{Device: AnyDevice, Keys: AllKeys, Intercept: false, Callback: func(Event) (bool, error) { return true, nil }}
	ctx := &Context{Name: "one", Registrations: []*Registration{reg}, Timers: newTimerSet()}
	loader := &fakeLoader{contexts: []*Context{ctx}}
	w := NewWorker("scripts", loader, nil)
	runWorker(t, w)
	require.NoError(t, w.Load())

	skip := w.HandleInput(Event{VKeyCode: 0x41})
	assert.False(t, skip, "intercept=false must never contribute to the suppression verdict")
}

func TestHandlerErrorIsSwallowedNotFatal(t *testing.T) {
	reg := &Registration{Device: AnyDevice, Keys: AllKeys, Callback: func(Event) (bool, error) { return false, errors.New("script blew up") }}
	ctx := &Context{Name: "one", Registrations: []*Registration{reg}, Timers: newTimerSet()}
	loader := &fakeLoader{contexts: []*Context{ctx}}
	w := NewWorker("scripts", loader, nil)
	runWorker(t, w)
	require.NoError(t, w.Load())

	assert.NotPanics(t, func() {
		skip := w.HandleInput(Event{VKeyCode: 0x41})
		assert.False(t, skip)
	})
}

func TestRunProcessesTimersWithoutBlockingOnInput(t *testing.T) {
	fired := make(chan struct{}, 1)
	ts := newTimerSet()
	ts.Add(20*time.Millisecond, func() { fired <- struct{}{} })
	ctx := &Context{Name: "one", Timers: ts}
	loader := &fakeLoader{contexts: []*Context{ctx}}
	w := NewWorker("scripts", loader, nil)
	runWorker(t, w)
	require.NoError(t, w.Load())

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}
