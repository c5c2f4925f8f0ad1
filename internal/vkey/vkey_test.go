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

package vkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByNameRoundTripsLettersAndDigits(t *testing.T) {
	for c := byte('a'); c <= 'z'; c++ {
		name := string(c)
		k, ok := ByName(name)
		require.True(t, ok, "letter %q should be registered", name)
		ch, ok := CharFromCode(k.Code)
		require.True(t, ok)
		assert.Equal(t, name, ch)
	}

	for d := byte('0'); d <= '9'; d++ {
		name := string(d)
		k, ok := ByName(name)
		require.True(t, ok, "digit %q should be registered", name)
		ch, ok := CharFromCode(k.Code)
		require.True(t, ok)
		assert.Equal(t, name, ch)
	}
}

func TestDigitsDoNotAliasLetters(t *testing.T) {
	// The original table derived digit codes from VK_A, aliasing '0'-'9'
	// onto 'a'-'j'. Digits must occupy the VK_0..VK_9 range (0x30-0x39).
	for d := byte('0'); d <= '9'; d++ {
		k, ok := ByName(string(d))
		require.True(t, ok)
		assert.GreaterOrEqual(t, k.Code, uint16(0x30))
		assert.LessOrEqual(t, k.Code, uint16(0x39))
	}
}

func TestNumpadDigitsAreDistinctFromMainRow(t *testing.T) {
	for d := byte('0'); d <= '9'; d++ {
		main, ok := ByName(string(d))
		require.True(t, ok)
		numpad, ok := ByName("numpad" + string(d))
		require.True(t, ok)
		assert.NotEqual(t, main.Code, numpad.Code)
	}
}

func TestFunctionKeyCodesAreContiguousThenResume(t *testing.T) {
	f1, ok := ByName("f1")
	require.True(t, ok)
	f12, ok := ByName("f12")
	require.True(t, ok)
	assert.Equal(t, f1.Code+11, f12.Code)

	f13, ok := ByName("f13")
	require.True(t, ok)
	f24, ok := ByName("f24")
	require.True(t, ok)
	assert.Equal(t, f13.Code+11, f24.Code)
}

func TestByNameUnknownFails(t *testing.T) {
	_, ok := ByName("not-a-real-key")
	assert.False(t, ok)
}

func TestByNameIsCaseInsensitive(t *testing.T) {
	k1, ok := ByName("Ctrl")
	require.True(t, ok)
	k2, ok := ByName("ctrl")
	require.True(t, ok)
	assert.Equal(t, k1, k2)
}

func TestIsModifierVK(t *testing.T) {
	ctrl, _ := ByName("ctrl")
	lctrl, _ := ByName("lctrl")
	a, _ := ByName("a")

	assert.True(t, IsModifierVK(ctrl.Code))
	assert.True(t, IsModifierVK(lctrl.Code))
	assert.False(t, IsModifierVK(a.Code))
}

type fakeLayout struct {
	scans map[rune]struct {
		code uint16
		mods Modifiers
	}
}

func (f fakeLayout) ScanChar(ch rune) (uint16, Modifiers, bool) {
	v, ok := f.scans[ch]
	return v.code, v.mods, ok
}

func TestParseChordNamedTokens(t *testing.T) {
	tokens, err := ParseChord("ctrl+shift+a", nil)
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	ctrl, _ := ByName("ctrl")
	shift, _ := ByName("shift")
	a, _ := ByName("a")
	assert.Equal(t, []Token{{Code: ctrl.Code}, {Code: shift.Code}, {Code: a.Code}}, tokens)
}

func TestParseChordFallsBackToLayoutForUnknownSingleChar(t *testing.T) {
	layout := fakeLayout{scans: map[rune]struct {
		code uint16
		mods Modifiers
	}{
		'@': {code: 0x32, mods: Modifiers{Shift: true}},
	}}

	tokens, err := ParseChord("@", layout)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, uint16(0x32), tokens[0].Code)
	assert.True(t, tokens[0].Mods.Shift)
}

func TestParseChordRejectsEmptyToken(t *testing.T) {
	_, err := ParseChord("ctrl++a", nil)
	assert.Error(t, err)

	_, err = ParseChord("", nil)
	assert.Error(t, err)

	_, err = ParseChord("+a", nil)
	assert.Error(t, err)
}

func TestParseChordRejectsUnresolvedToken(t *testing.T) {
	_, err := ParseChord("ctrl+notakey", nil)
	assert.Error(t, err)
}
