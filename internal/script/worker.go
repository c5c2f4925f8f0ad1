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

// Package script is the single-threaded script worker (component H): it
// owns every goja runtime, every registration, and every timer, and
// serves the hook's synchronous skip/don't-skip queries over a
// request/reply channel. Grounded on the teacher's hookWorker — a single
// goroutine locked to its own logic, serving other threads only through
// channels/messages, never shared memory.
package script

import (
	"fmt"
	"time"
)

// Event is what a registration's callback receives for each dispatched
// key transition.
type Event struct {
	VKeyCode  uint16
	Char      string
	Direction Direction
	Device    string
}

type loadRequest struct {
	done chan error
}

type inputRequest struct {
	event Event
	reply chan bool
}

type exitRequest struct {
	done chan struct{}
}

// Loader builds the set of script contexts to run, reading scriptsDir
// and returning one *Context per loadable file. It is an interface so
// the worker's dispatch/timer logic can be tested without goja or a
// filesystem.
type Loader interface {
	Load(scriptsDir string) ([]*Context, error)
}

// Context is one script's isolated state: its registrations and its
// timers. The concrete implementation (in scriptctx.go) also owns a
// goja.Runtime, but Worker only ever touches it through this surface.
type Context struct {
	Name          string
	Registrations []*Registration
	Timers        *timerSet
	Close         func()
}

// Logf is the narrow logging surface Worker needs; internal/applog.Logger
// satisfies it.
type Logf func(format string, args ...any)

// Worker serializes all script state onto one goroutine.
type Worker struct {
	scriptsDir string
	loader     Loader
	log        Logf

	reqCh chan any // loadRequest | inputRequest | exitRequest

	contexts []*Context
}

// NewWorker builds a worker that will load scripts from scriptsDir using
// loader when told to.
func NewWorker(scriptsDir string, loader Loader, log Logf) *Worker {
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Worker{
		scriptsDir: scriptsDir,
		loader:     loader,
		log:        log,
		reqCh:      make(chan any, 16),
	}
}

// Load asks the worker to (re)load every script, replacing the currently
// running set once the new set is ready. It blocks until the reload has
// taken effect or failed.
func (w *Worker) Load() error {
	req := loadRequest{done: make(chan error, 1)}
	w.reqCh <- req
	return <-req.done
}

// HandleInput asks the worker to dispatch a key event and reports
// whether any registered handler asked for it to be suppressed.
func (w *Worker) HandleInput(e Event) bool {
	req := inputRequest{event: e, reply: make(chan bool, 1)}
	w.reqCh <- req
	return <-req.reply
}

// Exit stops the worker's Run loop, closing every loaded context first.
func (w *Worker) Exit() {
	req := exitRequest{done: make(chan struct{})}
	w.reqCh <- req
	<-req.done
}

// Run is the worker's message loop; call it on its own goroutine. It
// blocks until Exit is called.
func (w *Worker) Run() {
	for {
		timeout := w.nearestTimerWait()
		select {
		case msg := <-w.reqCh:
			switch m := msg.(type) {
			case loadRequest:
				m.done <- w.doLoad()
			case inputRequest:
				m.reply <- w.dispatch(m.event)
			case exitRequest:
				w.closeAll()
				close(m.done)
				return
			}
		case <-time.After(timeout):
			w.runDueTimers()
		}
	}
}

func (w *Worker) nearestTimerWait() time.Duration {
	best := 24 * time.Hour
	found := false
	for _, c := range w.contexts {
		if d, ok := c.Timers.NearestDuration(); ok {
			found = true
			if d < best {
				best = d
			}
		}
	}
	if !found {
		return best
	}
	return best
}

func (w *Worker) runDueTimers() {
	for _, c := range w.contexts {
		c.Timers.RunDue()
	}
}

func (w *Worker) doLoad() error {
	next, err := w.loader.Load(w.scriptsDir)
	if err != nil {
		return fmt.Errorf("script: load: %w", err)
	}
	w.closeAll()
	w.contexts = next
	w.log("script: loaded %d script(s)", len(next))
	return nil
}

func (w *Worker) closeAll() {
	for _, c := range w.contexts {
		if c.Close != nil {
			c.Close()
		}
	}
	w.contexts = nil
}

// dispatch runs e through every registration in every loaded context,
// aggregating the suppression verdict as "skip if any handler says so".
// A handler that returns an error is logged and treated as false rather
// than aborting the remaining handlers.
func (w *Worker) dispatch(e Event) bool {
	skip := false
	for _, c := range w.contexts {
		for _, reg := range c.Registrations {
			if !reg.Keys.Matches(e.VKeyCode) {
				continue
			}
			if !reg.Device.Matches(e.Device) {
				continue
			}

			got, err := reg.Callback(e)
			if err != nil {
				w.log("script: handler error in %s: %v", c.Name, err)
				continue
			}
			if got && reg.Intercept {
				skip = true
			}
		}
	}
	return skip
}
