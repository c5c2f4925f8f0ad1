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

// Command rekey is the host process (components F/G/H/I/J): it owns the
// hidden message window, the script worker, the tray icon, and the
// scripts-directory watcher, and it loads the injected hook library
// (cmd/rekey-hook, built with -buildmode=c-shared) into itself so the
// host process is also a keyboard-hook carrier like every other GUI
// process on the desktop. Lifecycle (LockOSThread, single-instance
// mutex, panic/recover-as-exit) is grounded on the teacher's main/
// primary_defer/secondary_defer/ensureSingleInstance.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"unsafe"

	"github.com/rekeyhq/rekey/internal/applog"
	"github.com/rekeyhq/rekey/internal/device"
	"github.com/rekeyhq/rekey/internal/host"
	"github.com/rekeyhq/rekey/internal/inputlog"
	"github.com/rekeyhq/rekey/internal/rawinput"
	"github.com/rekeyhq/rekey/internal/rkconfig"
	"github.com/rekeyhq/rekey/internal/script"
	"github.com/rekeyhq/rekey/internal/tray"
	"github.com/rekeyhq/rekey/internal/vkey"
	"github.com/rekeyhq/rekey/internal/watch"
	"github.com/rekeyhq/rekey/internal/winapi"
	"golang.org/x/sys/windows"
)

// theLockedMainThreadToken proves, by its mere existence as a parameter,
// that the caller is running on main()'s runtime.LockOSThread'd goroutine
// — the only goroutine allowed to own the hidden window and pump
// messages on it.
type theLockedMainThreadToken struct{}

// exitStatus is what exitf panics with; primary_defer's recover turns it
// back into a log line and a process exit code instead of a crash dump.
type exitStatus struct {
	Code    int
	Message string
}

func exitf(code int, format string, a ...interface{}) {
	panic(exitStatus{Code: code, Message: fmt.Sprintf(format, a...)})
}

var (
	logger          *applog.Logger
	currentExitCode int
	mutexHandle     windows.Handle
)

func logf(format string, args ...any) {
	if logger != nil {
		logger.Logf(format, args...)
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

const singleInstanceName = `Local\rekeyhq_rekey_singleinstance`

// ensureSingleInstance mirrors the teacher's CreateMutexW-based guard: a
// second launch finds the mutex already held and exits rather than
// fighting the first instance over the same hook/rendezvous file.
func ensureSingleInstance() {
	namePtr := winapi.UTF16Ptr(singleInstanceName)
	h, _, _ := winapi.ProcCreateMutexW.Call(0, 1, uintptr(unsafe.Pointer(namePtr)))
	if h == 0 {
		exitf(5, "CreateMutexW failed")
	}
	mutexHandle = windows.Handle(h)
	if errors.Is(windows.GetLastError(), windows.ERROR_ALREADY_EXISTS) {
		exitf(5, "rekey is already running")
	}
}

func releaseSingleInstance() {
	if mutexHandle == 0 {
		return
	}
	winapi.ProcReleaseMutex.Call(uintptr(mutexHandle))
	winapi.ProcCloseHandle.Call(uintptr(mutexHandle))
	mutexHandle = 0
}

func main() {
	// Hooks and the message pump are thread-bound; this must run before
	// any goroutine that isn't allowed to migrate off this OS thread.
	runtime.LockOSThread()
	token := theLockedMainThreadToken{}

	paths, err := rkconfig.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rekey: %v\n", err)
		os.Exit(2)
	}
	logFile, err := os.OpenFile(paths.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rekey: open log: %v\n", err)
		os.Exit(2)
	}
	logger = applog.New(logFile, applog.DefaultChanSize)

	defer secondaryDefer()
	defer primaryDefer(logFile)

	ensureSingleInstance()

	logf("rekey starting, GOMAXPROCS=%d NumCPU=%d", runtime.GOMAXPROCS(0), runtime.NumCPU())

	if err := run(token, paths); err != nil {
		exitf(2, "%v", err)
	}
	logf("rekey: run returned cleanly")
}

func secondaryDefer() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "rekey: panic in primaryDefer: %v\n%s\n", r, debug.Stack())
		os.Exit(120)
	}
}

func primaryDefer(logFile *os.File) {
	if r := recover(); r != nil {
		if status, ok := r.(exitStatus); ok {
			currentExitCode = status.Code
			logf("exiting with code %d: %s", status.Code, status.Message)
		} else {
			currentExitCode = 1
			logf("crash: %v\n%s", r, debug.Stack())
		}
	}
	releaseSingleInstance()
	if logger != nil {
		logger.Close()
	}
	logFile.Close()
	os.Exit(currentExitCode)
}

// run wires every component together and blocks in the message pump
// until the tray's Exit action or an external WM_CLOSE tears it down.
func run(_ theLockedMainThreadToken, paths rkconfig.Paths) error {
	if err := paths.WriteAPIStub(); err != nil {
		return fmt.Errorf("write api stub: %w", err)
	}

	devices := device.NewRegistry(rawinput.DeviceNameResolver{})
	inputLog := inputlog.New()

	loader := &script.GojaLoader{
		Sender: winSender{},
		Keys:   winKeyStater{},
		Layout: winLayout{},
		Log:    logf,
	}
	worker := script.NewWorker(paths.ScriptsDir, loader, logf)
	go worker.Run()
	if err := worker.Load(); err != nil {
		logf("script: initial load failed: %v", err)
	}

	h := &host.Host{Worker: worker, Devices: devices, InputLog: inputLog, Log: logf}
	hwnd, err := h.Create()
	if err != nil {
		return fmt.Errorf("create host window: %w", err)
	}

	t := tray.New("rekey", tray.Actions{
		Reload: func() error {
			if err := paths.WriteAPIStub(); err != nil {
				logf("script: rewrite api stub failed: %v", err)
			}
			return worker.Load()
		},
		OpenScripts: func() error { return openPath(paths.ScriptsDir) },
		OpenLog:     func() error { return openPath(paths.LogFile) },
		Exit:        func() { h.Close() },
	})
	if err := t.Init(hwnd); err != nil {
		return fmt.Errorf("init tray: %w", err)
	}
	defer t.Close()

	h.OnTray = t.HandleTrayMessage
	h.OnCommand = t.HandleCommand

	watcher, err := watch.New(paths.ScriptsDir, func() error {
		if err := paths.WriteAPIStub(); err != nil {
			logf("script: rewrite api stub failed: %v", err)
		}
		return worker.Load()
	}, logf)
	if err != nil {
		logf("watch: failed to start scripts-directory watcher: %v", err)
	} else {
		watcher.Start()
		defer watcher.Close()
	}

	unhook, err := installHook(hwnd)
	if err != nil {
		return fmt.Errorf("install hook: %w", err)
	}
	defer unhook()

	logf("rekey: ready, scripts dir %s", paths.ScriptsDir)
	h.Run()

	worker.Exit()
	return nil
}

// hookDLLName is the build artifact of cmd/rekey-hook, expected next to
// this executable (built with -buildmode=c-shared).
const hookDLLName = "rekey-hook.dll"

// installHook loads the injected hook library into this process too, the
// same as every other GUI process the WH_KEYBOARD hook ends up
// mapped into, and calls its exported Install(hModule, hwnd).
func installHook(hwnd windows.Handle) (func(), error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	dllPath := filepath.Join(filepath.Dir(exe), hookDLLName)

	dll := windows.NewLazyDLL(dllPath)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("load %s: %w", hookDLLName, err)
	}
	install := dll.NewProc("Install")
	uninstall := dll.NewProc("Uninstall")

	ret, _, _ := install.Call(uintptr(dll.Handle()), uintptr(hwnd))
	if int32(ret) != 0 {
		return nil, fmt.Errorf("%s!Install returned %d", hookDLLName, int32(ret))
	}

	return func() {
		uninstall.Call()
	}, nil
}

func openPath(path string) error {
	ret, _, err := winapi.ProcShellExecuteW.Call(
		0,
		uintptr(unsafe.Pointer(winapi.UTF16Ptr("open"))),
		uintptr(unsafe.Pointer(winapi.UTF16Ptr(path))),
		0,
		0,
		winapi.SWShowNormal,
	)
	if ret <= 32 {
		return fmt.Errorf("ShellExecuteW(%q): %w", path, err)
	}
	return nil
}

// winSender synthesizes a sendKey(...) batch with a single SendInput
// call so a partial OS acceptance is detectable (script.Sender).
type winSender struct{}

func (winSender) SendInput(strokes []script.KeyStroke) (int, error) {
	if len(strokes) == 0 {
		return 0, nil
	}
	inputs := make([]winapi.INPUT, len(strokes))
	for i, s := range strokes {
		inputs[i].Type = winapi.InputKeyboard
		inputs[i].Ki.WVk = s.Code
		if !s.Down {
			inputs[i].Ki.DwFlags = winapi.KeyEventFKeyUp
		}
	}
	ret, _, err := winapi.ProcSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	sent := int(ret)
	if sent == len(inputs) {
		err = nil
	}
	return sent, err
}

// winKeyStater answers getKeyState(...) from GetAsyncKeyState
// (script.KeyStater).
type winKeyStater struct{}

func (winKeyStater) State(vkeyCode uint16) (down, toggled bool) {
	asyncRet, _, _ := winapi.ProcGetAsyncKeyState.Call(uintptr(vkeyCode))
	down = int16(asyncRet)&(-0x8000) != 0 // bit 15 set => currently down

	// Toggle state (CapsLock/NumLock/ScrollLock's bit 0) isn't part of
	// GetAsyncKeyState's return; GetKeyState tracks it per the calling
	// thread's last-processed input, which is good enough here since
	// this is read only from the script worker goroutine.
	syncRet, _, _ := winapi.ProcGetKeyState.Call(uintptr(vkeyCode))
	toggled = syncRet&1 != 0
	return down, toggled
}

// winLayout resolves single-character chord tokens via VkKeyScanExW
// against the foreground thread's keyboard layout (vkey.Layout /
// script.Layout).
type winLayout struct{}

func (winLayout) ScanChar(ch rune) (uint16, vkey.Modifiers, bool) {
	hkl, _, _ := winapi.ProcGetKeyboardLayout.Call(0)
	ret, _, _ := winapi.ProcVkKeyScanExW.Call(uintptr(ch), hkl)
	if int16(ret) == -1 {
		return 0, vkey.Modifiers{}, false
	}
	code := uint16(ret & 0xFF)
	shiftState := uint8((ret >> 8) & 0xFF)
	mods := vkey.Modifiers{
		Shift:   shiftState&0x01 != 0,
		Ctrl:    shiftState&0x02 != 0,
		Alt:     shiftState&0x04 != 0,
		Hankaku: shiftState&0x08 != 0,
	}
	return code, mods, true
}
