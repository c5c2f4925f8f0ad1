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

// Package vkey holds the canonical virtual-key name/code table, grounded in
// the original rekey_common/src/vkeys.rs table and in the teacher's own
// VK_* constant block (main.go's "Constants" section).
package vkey

import (
	"strconv"
	"strings"
)

// Key is a single named virtual key: a canonical lowercase name and its
// Win32 virtual-key code.
type Key struct {
	Name string
	Code uint16
}

const (
	vkShift   = 0x10
	vkControl = 0x11
	vkMenu    = 0x12
	vkLWin    = 0x5B
	vkRWin    = 0x5C
	vkLShift  = 0xA0
	vkRShift  = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5

	vkA       = 0x41
	vk0       = 0x30
	vkNumpad0 = 0x60
	vkF1      = 0x70
)

var named = []Key{
	{"esc", 0x1B},
	{"escape", 0x1B},
	{"ctrl", vkControl},
	{"lctrl", vkLControl},
	{"rctrl", vkRControl},
	{"alt", vkMenu},
	{"lalt", vkLMenu},
	{"ralt", vkRMenu},
	{"shift", vkShift},
	{"lshift", vkLShift},
	{"rshift", vkRShift},
	{"win", vkLWin},
	{"lwin", vkLWin},
	{"rwin", vkRWin},
	{"space", 0x20},
	{"backspace", 0x08},
	{"tab", 0x09},
	{"enter", 0x0D},
	{"return", 0x0D},
	{"pause", 0x13},
	{"capslock", 0x14},
	{"left", 0x25},
	{"right", 0x27},
	{"up", 0x26},
	{"down", 0x28},
	{"printscreen", 0x2C},
	{"insert", 0x2D},
	{"delete", 0x2E},
	{"numlock", 0x90},
	{"scrolllock", 0x91},
	{"home", 0x24},
	{"end", 0x23},
	{"pageup", 0x21},
	{"pagedown", 0x22},
	{"clear", 0x0C},
	{"divide", 0x6F},
	{"multiply", 0x6A},
	{"subtract", 0x6D},
	{"add", 0x6B},
	{"decimal", 0x6E},
	{"separator", 0x6C},
	{"launch_app_1", 0xB6},
	{"launch_app_2", 0xB7},
	{"browser_back", 0xA6},
	{"browser_forward", 0xA7},
	{"browser_refresh", 0xA8},
	{"browser_stop", 0xA9},
	{"browser_search", 0xAA},
	{"browser_favorites", 0xAB},
	{"browser_home", 0xAC},
	{"volume_mute", 0xAD},
	{"volume_down", 0xAE},
	{"volume_up", 0xAF},
	{"media_next_track", 0xB0},
	{"media_prev_track", 0xB1},
	{"media_stop", 0xB2},
	{"media_play_pause", 0xB3},
}

var byName = map[string]Key{}
var byCode = map[uint16]Key{}

func register(k Key) {
	if _, dup := byName[k.Name]; dup {
		panic("vkey: duplicate name " + k.Name)
	}
	byName[k.Name] = k
	if _, dup := byCode[k.Code]; !dup {
		byCode[k.Code] = k
	}
}

func init() {
	for _, k := range named {
		register(k)
	}
	for c := byte('a'); c <= 'z'; c++ {
		register(Key{string(c), uint16(vkA + (c - 'a'))})
	}
	for d := byte('0'); d <= '9'; d++ {
		register(Key{string(d), uint16(vk0 + (d - '0'))})
	}
	for d := byte('0'); d <= '9'; d++ {
		register(Key{"numpad" + string(d), uint16(vkNumpad0 + (d - '0'))})
	}
	for i := 1; i <= 24; i++ {
		name := "f" + strconv.Itoa(i)
		// F1..F12 are contiguous from 0x70; F13..F24 continue at 0x7C.
		var code uint16
		if i <= 12 {
			code = uint16(vkF1 + (i - 1))
		} else {
			code = uint16(0x7C + (i - 13))
		}
		register(Key{name, code})
	}
}

// All returns every registered (name, code) pair, including names that
// alias the same code (e.g. both "esc" and "escape").
func All() []Key {
	keys := make([]Key, 0, len(byName))
	for _, k := range byName {
		keys = append(keys, k)
	}
	return keys
}

// ConstantName returns the VK_<NAME> global identifier §4.I scripts see
// for a table entry, e.g. "lctrl" -> "VK_LCTRL".
func ConstantName(name string) string {
	b := make([]byte, 0, len(name)+3)
	b = append(b, "VK_"...)
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			b = append(b, byte(r-'a'+'A'))
		} else {
			b = append(b, byte(r))
		}
	}
	return string(b)
}

// ByName looks up a key by its canonical lowercase name. The match is
// case-insensitive; callers normally already lowercase but this guards
// against callers that don't.
func ByName(name string) (Key, bool) {
	k, ok := byName[strings.ToLower(name)]
	return k, ok
}

// ByCode looks up the canonical named key for a given code, if any exists.
// Multiple names can map to the same code (e.g. "esc" and "escape");
// ByCode returns whichever was registered first.
func ByCode(code uint16) (Key, bool) {
	k, ok := byCode[code]
	return k, ok
}

// CharFromCode returns the lowercase character a code stands for, for A-Z,
// 0-9 and numpad0-9, matching the scripting API's `ch` event field. It
// returns ("", false) for anything else (modifiers, function keys, etc.).
func CharFromCode(code uint16) (string, bool) {
	switch {
	case code >= vkA && code < vkA+26:
		return string(rune('a' + (code - vkA))), true
	case code >= vk0 && code < vk0+10:
		return string(rune('0' + (code - vk0))), true
	case code >= vkNumpad0 && code < vkNumpad0+10:
		return string(rune('0' + (code - vkNumpad0))), true
	default:
		return "", false
	}
}

// Modifiers is the OS-layout-derived modifier state returned when a chord
// token isn't in the table and has to be resolved via VkKeyScanEx.
type Modifiers struct {
	Shift   bool
	Ctrl    bool
	Alt     bool
	Hankaku bool
}

// IsModifierVK reports whether code names one of the shift/ctrl/alt
// modifier virtual keys, generic or left/right-specific.
func IsModifierVK(code uint16) bool {
	switch code {
	case vkShift, vkControl, vkMenu, vkLShift, vkRShift, vkLControl, vkRControl, vkLMenu, vkRMenu:
		return true
	default:
		return false
	}
}
