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

package script

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rekeyhq/rekey/internal/vkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	strokes []KeyStroke
	drop    int // number of trailing strokes the "OS" refuses to accept
}

func (f *fakeSender) SendInput(strokes []KeyStroke) (int, error) {
	f.strokes = append(f.strokes, strokes...)
	return len(strokes) - f.drop, nil
}

type fakeKeyStater struct {
	down    map[uint16]bool
	toggled map[uint16]bool
}

func (f *fakeKeyStater) State(code uint16) (bool, bool) {
	return f.down[code], f.toggled[code]
}

type fakeLayout struct{}

func (fakeLayout) ScanChar(ch rune) (uint16, vkey.Modifiers, bool) { return 0, vkey.Modifiers{}, false }

func TestRegisterAppendsRegistrationWithIntercept(t *testing.T) {
	sender := &fakeSender{}
	ctx, err := newContext("t.js", `rekeyRegister({intercept: true}, e => e.key === "a");`, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	require.NoError(t, err)
	require.Len(t, ctx.Registrations, 1)
	assert.True(t, ctx.Registrations[0].Intercept)

	aCode, _ := vkey.ByName("a")
	skip, err := ctx.Registrations[0].Callback(Event{VKeyCode: aCode.Code})
	require.NoError(t, err)
	assert.True(t, skip)

	bCode, _ := vkey.ByName("b")
	skip, err = ctx.Registrations[0].Callback(Event{VKeyCode: bCode.Code})
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestRegisterDeviceFilterContains(t *testing.T) {
	sender := &fakeSender{}
	ctx, err := newContext("t.js", `rekeyRegister({deviceFilter: "Logitech"}, () => true);`, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	require.NoError(t, err)
	require.Len(t, ctx.Registrations, 1)

	reg := ctx.Registrations[0]
	assert.True(t, reg.Device.Matches("My Logitech Keyboard"))
	assert.False(t, reg.Device.Matches("Unrelated Device"))
	assert.False(t, reg.Device.Matches(""), "a Contains filter must not match an unknown device")
}

func TestRegisterRejectsUnsupportedKeyFilter(t *testing.T) {
	sender := &fakeSender{}
	_, err := newContext("t.js", `rekeyRegister({keyFilter: "a"}, () => true);`, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	assert.Error(t, err)
}

func TestSendKeySingleKeyTap(t *testing.T) {
	sender := &fakeSender{}
	ctx, err := newContext("t.js", `sendKey("a");`, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	require.NoError(t, err)
	_ = ctx

	aCode, _ := vkey.ByName("a")
	require.Equal(t, []KeyStroke{{Code: aCode.Code, Down: true}, {Code: aCode.Code, Down: false}}, sender.strokes)
}

func TestSendKeyChordOrdering(t *testing.T) {
	sender := &fakeSender{}
	_, err := newContext("t.js", `sendKey("ctrl+shift+t");`, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	require.NoError(t, err)

	ctrlK, _ := vkey.ByName("ctrl")
	shiftK, _ := vkey.ByName("shift")
	tK, _ := vkey.ByName("t")

	want := []KeyStroke{
		{Code: ctrlK.Code, Down: true},
		{Code: shiftK.Code, Down: true},
		{Code: tK.Code, Down: true},
		{Code: tK.Code, Down: false},
		{Code: shiftK.Code, Down: false},
		{Code: ctrlK.Code, Down: false},
	}
	assert.Equal(t, want, sender.strokes)
}

func TestSendKeyDownOnlyAndUpOnly(t *testing.T) {
	sender := &fakeSender{}
	_, err := newContext("t.js", `sendKey("a", "down"); sendKey("a", "up");`, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	require.NoError(t, err)

	aCode, _ := vkey.ByName("a")
	want := []KeyStroke{
		{Code: aCode.Code, Down: true},
		{Code: aCode.Code, Down: false},
	}
	assert.Equal(t, want, sender.strokes)
}

func TestSendKeyPartialOSAcceptanceIsAnError(t *testing.T) {
	sender := &fakeSender{drop: 1}
	_, err := newContext("t.js", `sendKey("a");`, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	assert.Error(t, err)
}

func TestSendKeyRejectsHankakuToken(t *testing.T) {
	sender := &fakeSender{}
	layout := hankakuLayout{}
	_, err := newContext("t.js", `sendKey("ｦ");`, sender, &fakeKeyStater{}, layout, nil)
	assert.Error(t, err)
}

type hankakuLayout struct{}

func (hankakuLayout) ScanChar(ch rune) (uint16, vkey.Modifiers, bool) {
	return 0x41, vkey.Modifiers{Hankaku: true}, true
}

func TestVKConstantsAreInjectedIntoEveryContext(t *testing.T) {
	sender := &fakeSender{}
	aCode, _ := vkey.ByName("a")
	ctrlCode, _ := vkey.ByName("ctrl")

	source := fmt.Sprintf(`rekeyRegister({}, () => VK_A === %d && VK_CTRL === %d);`, aCode.Code, ctrlCode.Code)
	ctx, err := newContext("t.js", source, sender, &fakeKeyStater{}, fakeLayout{}, nil)
	require.NoError(t, err)
	require.Len(t, ctx.Registrations, 1)

	skip, err := ctx.Registrations[0].Callback(Event{})
	require.NoError(t, err)
	assert.True(t, skip, "VK_A/VK_CTRL must be real bindings, not just documented in rekey-api.js")
}

func TestLoadSkipsGeneratedAPIStub(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, apiStubName), []byte("const VK_A = 65;\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.js"), []byte(`rekeyRegister({}, () => true);`), 0o644))

	loader := &GojaLoader{Sender: &fakeSender{}, Keys: &fakeKeyStater{}, Layout: fakeLayout{}}
	contexts, err := loader.Load(dir)
	require.NoError(t, err)
	require.Len(t, contexts, 1, "the generated rekey-api.js stub must not be loaded as a script")
	assert.Equal(t, "real.js", contexts[0].Name)
}

func TestGetKeyStateReflectsStater(t *testing.T) {
	sender := &fakeSender{}
	aCode, _ := vkey.ByName("a")
	stater := &fakeKeyStater{down: map[uint16]bool{aCode.Code: true}}

	source := fmt.Sprintf(`rekeyRegister({}, () => getKeyState(%d).state === "down");`, aCode.Code)
	ctx, err := newContext("t.js", source, sender, stater, fakeLayout{}, nil)
	require.NoError(t, err)
	require.Len(t, ctx.Registrations, 1)

	skip, err := ctx.Registrations[0].Callback(Event{})
	require.NoError(t, err)
	assert.True(t, skip)
}
