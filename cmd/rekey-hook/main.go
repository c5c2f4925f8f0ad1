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

// Command rekey-hook is the injected hook library (component D). It is
// built with `-buildmode=c-shared` and exports a small C ABI the host
// process loads with LoadLibraryW/GetProcAddress, mirroring the original
// rekey_exe/src/dll.rs RekeyDll wrapper. All decision logic lives in
// internal/hook; this file is the cgo export shell plus the actual Win32
// calls, kept as thin as the teacher keeps its procX.Call(...) call
// sites.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"sync"

	"github.com/rekeyhq/rekey/internal/hook"
	"github.com/rekeyhq/rekey/internal/rendezvous"
	"github.com/rekeyhq/rekey/internal/winapi"
	"golang.org/x/sys/windows"
)

var (
	mu            sync.Mutex
	state         = hook.New(fileRendezvous{}, winSender{}, nil)
	installedHook windows.Handle
)

type winSender struct{}

func (winSender) SendMessage(hostHWND int64, msg uint32, wParam, lParam uintptr) uintptr {
	r, _, _ := winapi.ProcSendMessage.Call(uintptr(hostHWND), uintptr(msg), wParam, lParam)
	return r
}

type fileRendezvous struct{}

func (fileRendezvous) Write(r rendezvous.Record) error {
	return rendezvous.Write(rendezvous.Path(), r)
}

func (fileRendezvous) Read() (rendezvous.Record, error) {
	return rendezvous.Read(rendezvous.Path())
}

// goKeyboardProc is the actual HOOKPROC registered with SetWindowsHookEx.
// It must be obtained via windows.NewCallback rather than the exported C
// symbol below: SetWindowsHookEx needs a direct function pointer, and
// windows.NewCallback is the only way to get one for a Go function
// without a C trampoline.
//
// For WH_KEYBOARD, wParam IS the virtual-key code and lParam is the
// packed key-data value (bit 31 is the transition state); both are
// forwarded to the host verbatim rather than decoded here, matching how
// the host itself decodes WM_REKEY_SHOULD_SKIP_INPUT.
func goKeyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode < winapi.HCActionCode {
		r, _, _ := winapi.ProcCallNextHookEx.Call(uintptr(installedHook), uintptr(nCode), wParam, lParam)
		return r
	}

	skip, err := state.KeyEvent(wParam, lParam)
	if err == nil && skip {
		return 1
	}

	r, _, _ := winapi.ProcCallNextHookEx.Call(uintptr(installedHook), uintptr(nCode), wParam, lParam)
	return r
}

//export Install
func Install(dllHandle C.uint64_t, hwnd C.uint64_t) C.int32_t {
	mu.Lock()
	defer mu.Unlock()

	cb := windows.NewCallback(goKeyboardProc)
	h, _, _ := winapi.ProcSetWindowsHookEx.Call(winapi.WHKeyboard, cb, uintptr(dllHandle), 0)
	if h == 0 {
		return -1
	}
	installedHook = windows.Handle(h)

	if err := state.Install(int64(h), int64(hwnd)); err != nil {
		winapi.ProcUnhookWindowsHookEx.Call(uintptr(installedHook))
		installedHook = 0
		return -2
	}
	return 0
}

//export Uninstall
func Uninstall() C.int32_t {
	mu.Lock()
	defer mu.Unlock()

	if installedHook == 0 {
		return 0
	}
	ret, _, _ := winapi.ProcUnhookWindowsHookEx.Call(uintptr(installedHook))
	installedHook = 0
	if ret == 0 {
		return -1
	}
	return 0
}

//export KeyboardHook
func KeyboardHook(code C.int32_t, wParam C.uintptr_t, lParam C.uintptr_t) C.intptr_t {
	return C.intptr_t(goKeyboardProc(int(code), uintptr(wParam), uintptr(lParam)))
}

func main() {}
