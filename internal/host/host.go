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

// Package host owns the hidden message-pump window (component F): it
// registers the window class, serves the hook's synchronous
// WM_REKEY_SHOULD_SKIP_INPUT query, decodes WM_INPUT and feeds the input
// log, and routes tray/menu messages to their owners. Grounded directly
// on the teacher's createMessageWindow/wndProc/hookWorker's private
// message loop.
package host

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/rekeyhq/rekey/internal/device"
	"github.com/rekeyhq/rekey/internal/inputlog"
	"github.com/rekeyhq/rekey/internal/rawinput"
	"github.com/rekeyhq/rekey/internal/script"
	"github.com/rekeyhq/rekey/internal/vkey"
	"github.com/rekeyhq/rekey/internal/winapi"
	"golang.org/x/sys/windows"
)

// Logf matches internal/script.Logf so all components share one logging
// shape without importing each other just for the function type.
type Logf func(format string, args ...any)

// Host is the process's one hidden window plus everything that needs to
// react to messages sent to it.
type Host struct {
	Worker   *script.Worker
	Devices  *device.Registry
	InputLog *inputlog.Log
	Log      Logf

	// OnTray is invoked for the notify icon's callback message; nil if
	// the tray hasn't been initialized yet.
	OnTray func(wParam, lParam uintptr)
	// OnCommand is invoked for WM_COMMAND (menu selections).
	OnCommand func(id uint16)

	hwnd windows.Handle
}

// active is the single Host instance this process's WndProc dispatches
// to. Like the teacher, ReKey is single-instance per process, so one
// package-level pointer is simpler and no less safe than threading a
// context pointer through GWLP_USERDATA.
var active *Host

const className = "rekeyHidden"

// Create registers the window class (idempotent: harmless if called
// more than once in a test process) and creates the hidden window.
func (h *Host) Create() (windows.Handle, error) {
	if h.Log == nil {
		h.Log = func(string, ...any) {}
	}
	active = h

	classNamePtr := winapi.UTF16Ptr(className)

	var wc winapi.WNDCLASSEX
	wc.CbSize = uint32(unsafe.Sizeof(wc))
	wc.LpfnWndProc = windows.NewCallback(wndProc)
	wc.LpszClassName = classNamePtr

	hinst, _, _ := winapi.ProcGetModuleHandle.Call(0)
	wc.HInstance = windows.Handle(hinst)

	ret, _, err := winapi.ProcRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
	if ret == 0 && !errors.Is(err, windows.ERROR_CLASS_ALREADY_EXISTS) {
		return 0, fmt.Errorf("host: RegisterClassEx failed: %w", err)
	}

	hwndRaw, _, err := winapi.ProcCreateWindowEx.Call(
		0,
		uintptr(unsafe.Pointer(classNamePtr)),
		0,
		0,
		0, 0, 0, 0,
		0,
		0,
		uintptr(wc.HInstance),
		0,
	)
	if hwndRaw == 0 {
		return 0, fmt.Errorf("host: CreateWindowEx failed: %w", err)
	}

	h.hwnd = windows.Handle(hwndRaw)
	if err := rawinput.Register(h.hwnd); err != nil {
		return 0, fmt.Errorf("host: %w", err)
	}
	return h.hwnd, nil
}

// HWND returns the hidden window handle, 0 before Create.
func (h *Host) HWND() windows.Handle { return h.hwnd }

// Run pumps messages until WM_QUIT. Call it on the main, OS-thread-locked
// goroutine, mirroring the teacher's own GetMessage loop.
func (h *Host) Run() {
	var msg winapi.MSG
	for {
		ret, _, _ := winapi.ProcGetMessage.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if ret == 0 || ret == ^uintptr(0) {
			return
		}
		winapi.ProcTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		winapi.ProcDispatchMessage.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

// Close posts WM_CLOSE to the hidden window, the same polite shutdown
// path the tray's Exit menu item uses.
func (h *Host) Close() {
	if h.hwnd != 0 {
		winapi.ProcPostMessage.Call(uintptr(h.hwnd), winapi.WMClose, 0, 0)
	}
}

func wndProc(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	h := active
	if h == nil {
		r, _, _ := winapi.ProcDefWindowProc.Call(hwnd, uintptr(msg), wParam, lParam)
		return r
	}

	switch msg {
	case winapi.WMRekeyShouldSkipInput:
		return h.handleSkipQuery(wParam, lParam)

	case winapi.WMInput:
		h.handleRawInput(lParam)
		r, _, _ := winapi.ProcDefWindowProc.Call(hwnd, uintptr(msg), wParam, lParam)
		return r

	case winapi.WMTrayCallback:
		if h.OnTray != nil {
			h.OnTray(wParam, lParam)
		}
		return 0

	case winapi.WMCommand:
		if h.OnCommand != nil {
			h.OnCommand(uint16(wParam & 0xFFFF))
		}
		return 0

	case winapi.WMClose:
		winapi.ProcDestroyWindow.Call(uintptr(hwnd))
		return 0

	case winapi.WMDestroy:
		winapi.ProcPostQuitMessage.Call(0)
		return 0

	default:
		r, _, _ := winapi.ProcDefWindowProc.Call(hwnd, uintptr(msg), wParam, lParam)
		return r
	}
}

// handleSkipQuery decodes a WH_KEYBOARD hook's forwarded (wParam, lParam)
// the same way the hook receives them: wParam is the virtual-key code;
// lParam is the packed key-data value whose bit 31 is the transition
// state (0 = key being pressed, 1 = key being released).
func (h *Host) handleSkipQuery(wParam, lParam uintptr) uintptr {
	vkeyCode := uint16(wParam)
	dir := inputlog.Down
	if (lParam>>31)&1 != 0 {
		dir = inputlog.Up
	}

	deviceName := ""
	if d := h.InputLog.GetDevice(vkeyCode, dir); d != nil {
		deviceName = d.Name
	} else {
		// WM_INPUT for this stroke is usually already queued by the time
		// this synchronous query arrives, but not guaranteed; drain
		// whatever's pending non-blockingly and retry once before giving
		// up and dispatching with device unknown.
		h.drainPendingRawInput()
		if d := h.InputLog.GetDevice(vkeyCode, dir); d != nil {
			deviceName = d.Name
		}
	}

	evtDir := script.DirectionDown
	if dir == inputlog.Up {
		evtDir = script.DirectionUp
	}

	ch, _ := vkey.CharFromCode(vkeyCode)
	skip := h.Worker.HandleInput(script.Event{
		VKeyCode:  vkeyCode,
		Char:      ch,
		Direction: evtDir,
		Device:    deviceName,
	})
	if skip {
		return winapi.SkipInput
	}
	return winapi.DontSkipInput
}

// drainPendingRawInput pumps WM_INPUT (and only WM_INPUT) messages
// already sitting in this thread's queue through wndProc, without
// blocking for new ones. Called from inside handleSkipQuery, itself
// called from inside wndProc, so this must not touch messages that
// need real dispatch semantics (WM_COMMAND etc.) — it peeks WM_INPUT
// specifically rather than draining the whole queue.
func (h *Host) drainPendingRawInput() {
	var msg winapi.MSG
	for {
		ret, _, _ := winapi.ProcPeekMessage.Call(
			uintptr(unsafe.Pointer(&msg)),
			uintptr(h.hwnd),
			uintptr(winapi.WMInput),
			uintptr(winapi.WMInput),
			uintptr(winapi.PMRemove),
		)
		if ret == 0 {
			return
		}
		h.handleRawInput(msg.LParam)
	}
}

func (h *Host) handleRawInput(lParam uintptr) {
	evt, ok := rawinput.Decode(lParam)
	if !ok {
		return
	}
	dev := h.Devices.Get(evt.Handle)
	dir := inputlog.Down
	if evt.Direction == 1 {
		dir = inputlog.Up
	}
	h.InputLog.Add(dev, evt.VKeyCode, dir)
}
