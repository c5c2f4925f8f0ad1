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

// Package hook holds the WH_KEYBOARD callback's actual decision logic,
// kept free of cgo so it can be unit-tested directly. cmd/rekey-hook is a
// thin //export shell around this package, the way the teacher keeps its
// OS-facing procX.Call(...) wrappers separate from the logic that decides
// what to call them with.
package hook

import (
	"fmt"
	"sync"

	"github.com/rekeyhq/rekey/internal/rendezvous"
)

// RendezvousStore reads and writes the host-hwnd handoff record.
// cmd/rekey-hook's fileRendezvous backs it with a file on disk; tests
// supply an in-memory fake.
type RendezvousStore interface {
	Write(r rendezvous.Record) error
	Read() (rendezvous.Record, error)
}

// Sender performs the synchronous SendMessage call to the host window,
// forwarding the hook's own (wParam, lParam) verbatim: for WH_KEYBOARD,
// wParam is the virtual-key code and lParam is the packed key-data value
// (bit 31 is the transition state).
type Sender interface {
	SendMessage(hostHWND int64, msg uint32, wParam, lParam uintptr) uintptr
}

// rekeyShouldSkipInput is WM_USER+300 (see internal/winapi), duplicated
// here as an untyped constant so this package has no import-time
// dependency on winapi (and stays buildable without cgo or Windows).
const rekeyShouldSkipInput = 0x0400 + 300

const (
	dontSkipInput uintptr = 1
	skipInput     uintptr = 42
)

// State is the hook's per-process logic: it lazily resolves the host
// window handle via the rendezvous store, caches it, and turns each
// keyboard event into a synchronous skip/don't-skip verdict from the
// host.
type State struct {
	mu       sync.Mutex
	rv       RendezvousStore
	sender   Sender
	logf     func(format string, args ...any)
	hostHWND int64
	resolved bool
}

// New builds hook state backed by rv and sender. logf may be nil.
func New(rv RendezvousStore, sender Sender, logf func(string, ...any)) *State {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &State{rv: rv, sender: sender, logf: logf}
}

// Install is called once, from the host process, after SetWindowsHookEx
// has produced hookHandle; it persists (hookHandle, hostHWND) so any
// process this hook's events are dispatched through can look up the host.
func (s *State) Install(hookHandle, hostHWND int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rv.Write(rendezvous.Record{HookHandle: hookHandle, HostHWND: hostHWND}); err != nil {
		return fmt.Errorf("hook: install: %w", err)
	}
	s.hostHWND = hostHWND
	s.resolved = true
	s.logf("hook installed, handle=%d host=%d", hookHandle, hostHWND)
	return nil
}

func (s *State) resolveHostHWND() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolved {
		return s.hostHWND, nil
	}
	rec, err := s.rv.Read()
	if err != nil {
		return 0, fmt.Errorf("hook: resolve host: %w", err)
	}
	s.hostHWND = rec.HostHWND
	s.resolved = true
	return s.hostHWND, nil
}

// Forget drops the cached host handle, forcing the next event to reread
// the rendezvous file. KeyEvent does not call it; a failed or unexpected
// reply leaves the cached handle in place.
func (s *State) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolved = false
}

// KeyEvent forwards an nCode-ok hook event's (wParam, lParam) verbatim to
// the host and reports whether the host wants it suppressed. It returns
// skip=false, err=non-nil on any failure to reach the host; callers (the
// cgo export) treat that the same as skip=false (passthrough), matching
// §7's "never block real input on an internal failure" policy.
func (s *State) KeyEvent(wParam, lParam uintptr) (skip bool, err error) {
	host, err := s.resolveHostHWND()
	if err != nil {
		s.logf("hook: could not resolve host, passing through: %v", err)
		return false, err
	}

	reply := s.sender.SendMessage(host, rekeyShouldSkipInput, wParam, lParam)
	switch reply {
	case skipInput:
		return true, nil
	case dontSkipInput:
		return false, nil
	default:
		s.logf("hook: unexpected reply %d from host, passing through", reply)
		return false, nil
	}
}
