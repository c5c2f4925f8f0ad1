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

// Package tray owns the notify-icon lifecycle and its popup menu
// (component J). Grounded on the teacher's initTray/cleanupTray/
// showTrayInfo trio; the menu item set and the reload-failure dialog are
// additions for this program's own command surface (Reload Scripts,
// Open Scripts Folder, Open Log, Exit) rather than the teacher's window
// gesture toggles.
package tray

import (
	"fmt"
	"unsafe"

	"github.com/rekeyhq/rekey/internal/winapi"
	"golang.org/x/sys/windows"
)

// Menu command identifiers, dispatched to Tray.HandleCommand via
// WM_COMMAND.
const (
	CmdReloadScripts = 1
	CmdOpenScripts   = 2
	CmdOpenLog       = 3
	CmdExit          = 4
)

const iconVersion4 = 4
const nimSetVersion = 0x00000004
const idiApplication = 32512

// Actions bundles what each menu command actually does; cmd/rekey wires
// these to the real filesystem/process operations.
type Actions struct {
	Reload      func() error
	OpenScripts func() error
	OpenLog     func() error
	Exit        func()
}

// Tray owns the NOTIFYICONDATA struct across Init/cleanup the same way
// the teacher keeps one package-level trayIcon alive for the process's
// lifetime.
type Tray struct {
	Actions Actions
	icon    winapi.NOTIFYICONDATA
	tipName string
}

// New builds a Tray that will show tipName as its tooltip.
func New(tipName string, actions Actions) *Tray {
	return &Tray{Actions: actions, tipName: tipName}
}

// Init creates the notify icon attached to hwnd. hwnd's WndProc must
// route WM_TRAY_CALLBACK to t.HandleTrayMessage and WM_COMMAND to
// t.HandleCommand.
func (t *Tray) Init(hwnd windows.Handle) error {
	t.icon.HWnd = hwnd
	t.icon.CbSize = uint32(unsafe.Sizeof(t.icon))
	t.icon.UID = 1
	t.icon.UFlags = winapi.NIFTip | winapi.NIFIcon | winapi.NIFMessage
	t.icon.UCallbackMessage = winapi.WMTrayCallback
	t.icon.UTimeoutOrVersion = iconVersion4

	hIcon, _, _ := user32LoadIcon(0, idiApplication)
	t.icon.HIcon = windows.Handle(hIcon)
	copy(t.icon.SzTip[:], windows.StringToUTF16(t.tipName))

	ret, _, err := winapi.ProcShellNotifyIcon.Call(winapi.NIMAdd, uintptr(unsafe.Pointer(&t.icon)))
	if ret == 0 {
		return fmt.Errorf("tray: Shell_NotifyIcon(NIM_ADD): %w", err)
	}

	winapi.ProcShellNotifyIcon.Call(nimSetVersion, uintptr(unsafe.Pointer(&t.icon)))
	return nil
}

// Close removes the notify icon. Safe to call even if Init was never
// called or already failed.
func (t *Tray) Close() {
	if t.icon.HWnd == 0 {
		return
	}
	t.icon.UFlags = 0
	winapi.ProcShellNotifyIcon.Call(winapi.NIMDelete, uintptr(unsafe.Pointer(&t.icon)))
	t.icon = winapi.NOTIFYICONDATA{}
}

// HandleTrayMessage reacts to the notify icon's own callback message
// (lParam carries the originating mouse event); a right-click pops the
// menu.
func (t *Tray) HandleTrayMessage(wParam, lParam uintptr) {
	const wmRButtonUp = 0x0205
	if uint32(lParam) != wmRButtonUp {
		return
	}
	t.showMenu()
}

func (t *Tray) showMenu() {
	var pt winapi.POINT
	winapi.ProcGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))

	menu, _, _ := winapi.ProcCreatePopupMenu.Call()
	if menu == 0 {
		return
	}

	appendMenuItem(menu, CmdReloadScripts, "Reload Scripts")
	appendMenuItem(menu, CmdOpenScripts, "Open Scripts Folder")
	appendMenuItem(menu, CmdOpenLog, "Open Log")
	winapi.ProcAppendMenu.Call(menu, winapi.MFSeparator, 0, 0)
	appendMenuItem(menu, CmdExit, "Exit")

	winapi.ProcSetForegroundWindow.Call(uintptr(t.icon.HWnd))
	ret, _, _ := winapi.ProcTrackPopupMenu.Call(
		menu,
		winapi.TPMRightButton|winapi.TPMReturnCmd,
		uintptr(pt.X), uintptr(pt.Y),
		0,
		uintptr(t.icon.HWnd),
		0,
	)
	// TPM_RETURNCMD makes TrackPopupMenu return the chosen command instead
	// of posting WM_COMMAND; dispatch it directly rather than relying on a
	// message that never arrives. 0 means dismissed without a selection.
	if id := uint16(ret); id != 0 {
		t.HandleCommand(id)
	}
}

func appendMenuItem(menu uintptr, id uint16, text string) {
	winapi.ProcAppendMenu.Call(menu, winapi.MFString, uintptr(id), uintptr(unsafe.Pointer(winapi.UTF16Ptr(text))))
}

// HandleCommand runs the action bound to a WM_COMMAND menu id. A failed
// reload shows a Retry/Cancel message box, matching §6's reload-failure
// recovery path; Retry tries once more, Cancel leaves the previous
// script set running.
func (t *Tray) HandleCommand(id uint16) {
	switch id {
	case CmdReloadScripts:
		t.reloadWithRetry()
	case CmdOpenScripts:
		if t.Actions.OpenScripts != nil {
			t.Actions.OpenScripts()
		}
	case CmdOpenLog:
		if t.Actions.OpenLog != nil {
			t.Actions.OpenLog()
		}
	case CmdExit:
		if t.Actions.Exit != nil {
			t.Actions.Exit()
		}
	}
}

func (t *Tray) reloadWithRetry() {
	if t.Actions.Reload == nil {
		return
	}
	for {
		err := t.Actions.Reload()
		if err == nil {
			return
		}
		choice := messageBoxRetryCancel(fmt.Sprintf("Failed to reload scripts:\n%v", err))
		if choice != winapi.IDRetry {
			return
		}
	}
}

func messageBoxRetryCancel(text string) int32 {
	ret, _, _ := winapi.ProcMessageBoxW.Call(
		0,
		uintptr(unsafe.Pointer(winapi.UTF16Ptr(text))),
		uintptr(unsafe.Pointer(winapi.UTF16Ptr("rekey"))),
		winapi.MBRetryCancel|winapi.MBIconError,
	)
	return int32(ret)
}

func user32LoadIcon(hinst, name uintptr) (uintptr, uintptr, error) {
	return winapi.ProcLoadIcon.Call(hinst, name)
}
