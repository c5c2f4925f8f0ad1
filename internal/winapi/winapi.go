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

// Package winapi is the single place raw Win32 syscalls are declared.
// Every other package calls through here instead of loading its own DLLs,
// matching the teacher's habit of declaring every procX at package scope
// next to the DLL it came from and calling procX.Call(...) at the use
// site rather than wrapping each one in its own exported function.
package winapi

import "golang.org/x/sys/windows"

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	shell32  = windows.NewLazySystemDLL("shell32.dll")

	ProcSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	ProcCallNextHookEx      = user32.NewProc("CallNextHookEx")
	ProcUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")

	ProcGetMessage       = user32.NewProc("GetMessageW")
	ProcPeekMessage      = user32.NewProc("PeekMessageW")
	ProcTranslateMessage = user32.NewProc("TranslateMessage")
	ProcDispatchMessage  = user32.NewProc("DispatchMessageW")
	ProcPostQuitMessage  = user32.NewProc("PostQuitMessage")
	ProcPostMessage      = user32.NewProc("PostMessageW")
	ProcPostThreadMessage = user32.NewProc("PostThreadMessageW")
	ProcSendMessage      = user32.NewProc("SendMessageW")
	ProcDefWindowProc    = user32.NewProc("DefWindowProcW")

	ProcRegisterClassEx  = user32.NewProc("RegisterClassExW")
	ProcUnregisterClassW = user32.NewProc("UnregisterClassW")
	ProcCreateWindowEx   = user32.NewProc("CreateWindowExW")
	ProcDestroyWindow    = user32.NewProc("DestroyWindow")

	ProcSendInput        = user32.NewProc("SendInput")
	ProcGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
	ProcGetKeyState      = user32.NewProc("GetKeyState")
	ProcVkKeyScanExW     = user32.NewProc("VkKeyScanExW")
	ProcGetKeyboardLayout = user32.NewProc("GetKeyboardLayout")

	ProcRegisterRawInputDevices = user32.NewProc("RegisterRawInputDevices")
	ProcGetRawInputData         = user32.NewProc("GetRawInputData")
	ProcGetRawInputDeviceInfoW  = user32.NewProc("GetRawInputDeviceInfoW")

	ProcShellNotifyIcon = shell32.NewProc("Shell_NotifyIconW")
	ProcShellExecuteW   = shell32.NewProc("ShellExecuteW")

	ProcCreatePopupMenu = user32.NewProc("CreatePopupMenu")
	ProcAppendMenu      = user32.NewProc("AppendMenuW")
	ProcTrackPopupMenu  = user32.NewProc("TrackPopupMenu")
	ProcGetCursorPos    = user32.NewProc("GetCursorPos")
	ProcLoadIcon        = user32.NewProc("LoadIconW")
	ProcSetForegroundWindow = user32.NewProc("SetForegroundWindow")
	ProcMessageBoxW     = user32.NewProc("MessageBoxW")

	ProcGetModuleHandle = kernel32.NewProc("GetModuleHandleW")
	ProcCreateMutexW    = kernel32.NewProc("CreateMutexW")
	ProcReleaseMutex    = kernel32.NewProc("ReleaseMutex")
	ProcCloseHandle     = kernel32.NewProc("CloseHandle")
)

// Win32 message identifiers used across the hook/host/tray split.
const (
	WMUser  = 0x0400
	WMClose = 0x0010
	WMQuit  = 0x0012
	WMDestroy = 0x0002
	WMCommand = 0x0111
	WMInput   = 0x00FF

	// WMRekeyShouldSkipInput is the synchronous rendezvous message the hook
	// sends to the host window for every keydown/keyup it sees; the host's
	// WndProc reply becomes the hook's CallNextHookEx decision.
	WMRekeyShouldSkipInput = WMUser + 300

	// WMTrayCallback is the notify-icon callback message (NIF_MESSAGE).
	WMTrayCallback = WMUser + 301
)

// LRESULT values the host returns to WMRekeyShouldSkipInput.
const (
	DontSkipInput uintptr = 1
	SkipInput     uintptr = 42
)

// PeekMessage flags (PM_REMOVE): used by the host to non-blockingly
// drain any WM_INPUT already queued ahead of a synchronous skip-query,
// per the hook/host ordering invariant.
const (
	PMRemove = 0x0001
)

const (
	// WHKeyboard is the classic (non-low-level) keyboard hook: unlike
	// WH_KEYBOARD_LL, SetWindowsHookEx actually injects its callback into
	// every GUI process's address space, which is what lets the hook's
	// SendMessage to the host window cross process boundaries.
	WHKeyboard = 2
	WHMouseLL  = 14

	HCActionCode = 0

	WMKeyDown    = 0x0100
	WMKeyUp      = 0x0101
	WMSysKeyDown = 0x0104
	WMSysKeyUp   = 0x0105
)

// Raw Input constants (usage page 1 generic desktop, usage 6 keyboard).
const (
	RIDEVInputSink = 0x00000100
	RIDEVDevNotify = 0x00002000

	RIMTypeKeyboard = 1

	RIDIDeviceName = 0x20000007
	RIDInput       = 0x10000003
	RIDHeader      = 0x10000005

	HIDUsagePageGeneric  = 0x01
	HIDUsageGenericKeyboard = 0x06
)

// SendInput constants.
const (
	InputKeyboard      = 1
	KeyEventFKeyUp     = 0x0002
	KeyEventFScanCode  = 0x0008
	KeyEventFExtended  = 0x0001
)

// Menu flags for CreatePopupMenu/AppendMenuW/TrackPopupMenu.
const (
	MFString = 0x0000
	MFSeparator = 0x0800

	TPMRightButton = 0x0002
	TPMReturnCmd   = 0x0100
)

// ShellExecuteW show-command used for the tray's Open Scripts Folder /
// Open Log actions.
const (
	SWShowNormal = 1
)

// MessageBoxW button/result constants used by the tray's reload-failure
// dialog.
const (
	MBRetryCancel = 0x00000005
	MBIconError   = 0x00000010
	IDRetry       = 4
	IDCancel      = 2
)

// Window-class style flags.
const CSHRedraw = 0x0002
const CSVRedraw = 0x0001

// KEYBDINPUT mirrors the Win32 KEYBDINPUT struct.
type KEYBDINPUT struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// INPUT mirrors the Win32 INPUT struct for the keyboard union member,
// padded to the size of the largest union member (MOUSEINPUT, 32 bytes)
// exactly as the teacher's copy does.
type INPUT struct {
	Type uint32
	_    uint32
	Ki   KEYBDINPUT
	_    [8]byte
}

// WNDCLASSEX mirrors the Win32 WNDCLASSEXW struct.
type WNDCLASSEX struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     windows.Handle
	HIcon         windows.Handle
	HCursor       windows.Handle
	HbrBackground windows.Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       windows.Handle
}

// POINT mirrors the Win32 POINT struct.
type POINT struct {
	X, Y int32
}

// MSG mirrors the Win32 MSG struct used by the message pump.
type MSG struct {
	HWnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      POINT
}

// NOTIFYICONDATA mirrors NOTIFYICONDATAW, sized the way the teacher's copy
// is (SzTip/SzInfo/SzInfoTitle are fixed-width to match the ABI).
type NOTIFYICONDATA struct {
	CbSize            uint32
	HWnd              windows.Handle
	UID               uint32
	UFlags            uint32
	UCallbackMessage  uint32
	HIcon             windows.Handle
	SzTip             [128]uint16
	DwState           uint32
	DwStateMask       uint32
	SzInfo            [256]uint16
	UTimeoutOrVersion uint32
	SzInfoTitle       [64]uint16
	DwInfoFlags       uint32
}

const (
	NIMAdd    = 0x00000000
	NIMModify = 0x00000001
	NIMDelete = 0x00000002

	NIFMessage = 0x00000001
	NIFIcon    = 0x00000002
	NIFTip     = 0x00000004
)

// RAWINPUTDEVICE mirrors the struct passed to RegisterRawInputDevices.
type RAWINPUTDEVICE struct {
	UsUsagePage uint16
	UsUsage     uint16
	DwFlags     uint32
	HwndTarget  windows.Handle
}

// RAWINPUTHEADER mirrors RAWINPUT's common header.
type RAWINPUTHEADER struct {
	DwType  uint32
	DwSize  uint32
	HDevice windows.Handle
	WParam  uintptr
}

// RAWKEYBOARD mirrors the keyboard-specific payload of a RAWINPUT record.
type RAWKEYBOARD struct {
	MakeCode         uint16
	Flags            uint16
	Reserved         uint16
	VKey             uint16
	Message          uint32
	ExtraInformation uint32
}

// RAWINPUT mirrors the RAWINPUT union for the keyboard case, which is all
// ReKey registers for.
type RAWINPUT struct {
	Header RAWINPUTHEADER
	Data   RAWKEYBOARD
}

const (
	RIKeyBreak = 0x01 // RI_KEY_BREAK: key released
)

// UTF16Ptr converts a Go string to a null-terminated UTF-16 pointer,
// panicking on embedded NUL the way windows.UTF16PtrFromString would
// error on — callers pass only trusted, program-internal strings (class
// names, menu labels), matching the teacher's mustUTF16 helper.
func UTF16Ptr(s string) *uint16 {
	p, err := windows.UTF16PtrFromString(s)
	if err != nil {
		panic("winapi: invalid string for UTF16Ptr: " + err.Error())
	}
	return p
}
