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

// Package rawinput registers for and decodes WM_INPUT keyboard messages.
// Raw Input is the only Win32 surface that ties a keystroke back to the
// physical device that produced it; the WH_KEYBOARD hook alone
// can't. Grounded on spec.md's component G and the teacher's own use of
// a single narrow registration call (initTray, initDPIAwareness) made
// once at startup rather than scattered across the file.
package rawinput

import (
	"fmt"
	"unsafe"

	"github.com/rekeyhq/rekey/internal/device"
	"github.com/rekeyhq/rekey/internal/winapi"
	"golang.org/x/sys/windows"
)

// Register subscribes hwnd to background keyboard raw input (usage page
// 1, usage 6), using RIDEV_INPUTSINK so events arrive even while hwnd
// isn't foreground (it never is; it's a hidden message window).
func Register(hwnd windows.Handle) error {
	rid := winapi.RAWINPUTDEVICE{
		UsUsagePage: winapi.HIDUsagePageGeneric,
		UsUsage:     winapi.HIDUsageGenericKeyboard,
		DwFlags:     winapi.RIDEVInputSink,
		HwndTarget:  hwnd,
	}
	ret, _, err := winapi.ProcRegisterRawInputDevices.Call(
		uintptr(unsafe.Pointer(&rid)),
		1,
		unsafe.Sizeof(rid),
	)
	if ret == 0 {
		return fmt.Errorf("rawinput: RegisterRawInputDevices: %w", err)
	}
	return nil
}

// Event is a decoded WM_INPUT keyboard event.
type Event struct {
	Handle    device.Handle
	VKeyCode  uint16
	Direction int // 0 = down, 1 = up; mirrors inputlog.Direction without importing it
}

// Decode extracts an Event from the lParam of a WM_INPUT message. It
// returns ok=false for non-keyboard raw input (e.g. mouse), which ReKey
// never registers for but which a defensive caller should still handle.
func Decode(lParam uintptr) (Event, bool) {
	var raw winapi.RAWINPUT
	size := uint32(unsafe.Sizeof(raw))
	ret, _, _ := winapi.ProcGetRawInputData.Call(
		lParam,
		winapi.RIDInput,
		uintptr(unsafe.Pointer(&raw)),
		uintptr(unsafe.Pointer(&size)),
		unsafe.Sizeof(winapi.RAWINPUTHEADER{}),
	)
	if ret == 0 || int32(ret) == -1 {
		return Event{}, false
	}
	if raw.Header.DwType != winapi.RIMTypeKeyboard {
		return Event{}, false
	}

	// §3's Input event rule: direction comes from raw input's Message
	// field (KEYDOWN/SYSKEYDOWN => Down, KEYUP/SYSKEYUP => Up, else Down),
	// not from the RI_KEY_BREAK flag bit.
	dir := 0
	switch raw.Data.Message {
	case winapi.WMKeyUp, winapi.WMSysKeyUp:
		dir = 1
	}

	return Event{
		Handle:    device.Handle(raw.Header.HDevice),
		VKeyCode:  raw.Data.VKey,
		Direction: dir,
	}, true
}

// DeviceNameResolver implements device.NameResolver over
// GetRawInputDeviceInfoW(RIDI_DEVICENAME), which returns the device's
// kernel object path (e.g. \\?\HID#VID_...); that's what's surfaced to
// scripts, matching how the original program exposed device identity.
type DeviceNameResolver struct{}

// ResolveName satisfies device.NameResolver.
func (DeviceNameResolver) ResolveName(h device.Handle) (string, bool) {
	var size uint32
	winapi.ProcGetRawInputDeviceInfoW.Call(
		uintptr(h),
		winapi.RIDIDeviceName,
		0,
		uintptr(unsafe.Pointer(&size)),
	)
	if size == 0 {
		return "", false
	}

	buf := make([]uint16, size)
	ret, _, _ := winapi.ProcGetRawInputDeviceInfoW.Call(
		uintptr(h),
		winapi.RIDIDeviceName,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&size)),
	)
	if int32(ret) <= 0 {
		return "", false
	}
	return windows.UTF16ToString(buf), true
}
