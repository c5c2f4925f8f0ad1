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

// Package watch adds a scripts-directory file watcher as a second reload
// trigger alongside the tray's manual "Reload Scripts" menu item (§4.H+).
// Grounded on _examples/writerslogic-witnessd/internal/watcher's
// fsnotify.Watcher + debounce-loop shape: a dedicated goroutine drains
// fsWatcher.Events/Errors, and a timer coalesces a save-burst into one
// trigger instead of reloading once per individual write.
package watch

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// Logf is the narrow logging surface Watcher needs.
type Logf func(format string, args ...any)

// Watcher watches a single directory (ReKey's scripts directory) and
// calls Reload, debounced, whenever its contents change.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	reload    func() error
	debounce  time.Duration
	log       Logf

	done chan struct{}
}

// DefaultDebounce coalesces an editor's save-as-multiple-writes burst
// into a single reload, per §4.H+.
const DefaultDebounce = 250 * time.Millisecond

// New builds a Watcher over dir that calls reload (debounced) on any
// create/write/remove/rename. log may be nil.
func New(dir string, reload func() error, log Logf) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		reload:    reload,
		debounce:  DefaultDebounce,
		log:       log,
		done:      make(chan struct{}),
	}, nil
}

// Start runs the watch loop on its own goroutine until Close is called.
func (w *Watcher) Start() {
	go w.loop()
}

// Close stops the watch loop and releases the underlying OS watch.
func (w *Watcher) Close() {
	close(w.done)
	w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				fire = timer.C
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log("watch: %v", err)

		case <-fire:
			fire = nil
			if err := w.reload(); err != nil {
				w.log("watch: reload failed: %v", err)
			}
		}
	}
}
