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
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/rekeyhq/rekey/internal/scriptapi"
	"github.com/rekeyhq/rekey/internal/vkey"
)

// KeyStroke is one synthesized key transition, in the exact order
// sendKey(...) must submit it to the OS.
type KeyStroke struct {
	Code uint16
	Down bool
}

// Sender is how a script's sendKey(...) call actually reaches the OS;
// cmd/rekey wires this to a single SendInput call over the whole batch,
// so §4.I's "events actually consumed must equal events submitted" check
// is meaningful (a per-token send could partially succeed without the
// caller ever finding out). Kept as an interface so contexts are
// constructible in tests without touching Win32.
type Sender interface {
	SendInput(strokes []KeyStroke) (sent int, err error)
}

var (
	ctrlKey, _  = vkey.ByName("ctrl")
	altKey, _   = vkey.ByName("alt")
	shiftKey, _ = vkey.ByName("shift")
)

// KeyStater is how a script's getKeyState(...) call reaches the OS;
// cmd/rekey wires this to GetAsyncKeyState (bit 15 set means the key is
// down right now) plus GetKeyState (bit 0 set means it's toggled,
// meaningful for CapsLock/NumLock/ScrollLock).
type KeyStater interface {
	State(vkeyCode uint16) (down, toggled bool)
}

// Layout resolves single-character chord tokens not present in the
// named table (see vkey.Layout); cmd/rekey wires this to VkKeyScanExW.
type Layout = vkey.Layout

// GojaLoader loads every `.js` file directly under scriptsDir into its
// own goja.Runtime, matching original_source/rekey_exe/src/scripts.rs's
// scripts_load (one fresh Context per file, no sharing of state between
// scripts). `.ts` files are skipped with a logged reason rather than
// transpiled, per the project's resolved Open Question on the missing
// TypeScript pipeline.
type GojaLoader struct {
	Sender  Sender
	Keys    KeyStater
	Layout  Layout
	Log     Logf
}

// apiStubName is rkconfig's generated rekey-api.js reference file. It is
// plain documentation text (const declarations plus a doc comment), not a
// script a user wrote, so Load must not pick it up as one.
const apiStubName = "rekey-api.js"

// Load implements Loader.
func (l *GojaLoader) Load(scriptsDir string) ([]*Context, error) {
	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		return nil, fmt.Errorf("script: read scripts dir: %w", err)
	}

	var contexts []*Context
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == apiStubName {
			continue
		}
		switch filepath.Ext(name) {
		case ".js":
		case ".ts":
			l.logf("skipping %s: TypeScript scripts are not supported, only .js", name)
			continue
		default:
			continue
		}

		path := filepath.Join(scriptsDir, name)
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("script: read %s: %w", path, err)
		}

		ctx, err := newContext(name, string(source), l.Sender, l.Keys, l.Layout, l.Log)
		if err != nil {
			l.logf("script: %s failed to load: %v", name, err)
			continue
		}
		contexts = append(contexts, ctx)
	}
	return contexts, nil
}

func (l *GojaLoader) logf(format string, args ...any) {
	if l.Log != nil {
		l.Log(format, args...)
	}
}

// contextAPI adapts one script's Context to scriptapi.HostAPI.
type contextAPI struct {
	ctx    *Context
	vm     *goja.Runtime
	sender Sender
	keys   KeyStater
	layout Layout
	log    Logf
}

func newContext(name, source string, sender Sender, keys KeyStater, layout Layout, log Logf) (*Context, error) {
	vm := goja.New()
	ctx := &Context{Name: name, Timers: newTimerSet()}
	api := &contextAPI{ctx: ctx, vm: vm, sender: sender, keys: keys, layout: layout, log: log}
	ctx.Close = func() {}

	if err := scriptapi.Install(vm, api); err != nil {
		return nil, fmt.Errorf("install api: %w", err)
	}
	if err := injectVKConstants(vm); err != nil {
		return nil, fmt.Errorf("install vk constants: %w", err)
	}

	if _, err := vm.RunString(source); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	return ctx, nil
}

// injectVKConstants sets the VK_<NAME> globals §4.I promises every script
// context, from the same table rkconfig.WriteAPIStub documents them from —
// so a script using VK_A sees the real binding instead of only reading
// about it in the generated reference file.
func injectVKConstants(vm *goja.Runtime) error {
	for _, k := range vkey.All() {
		if err := vm.Set(vkey.ConstantName(k.Name), k.Code); err != nil {
			return fmt.Errorf("set %s: %w", vkey.ConstantName(k.Name), err)
		}
	}
	return nil
}

func (a *contextAPI) Register(deviceFilter string, intercept bool, callback goja.Callable) error {
	device := AnyDevice
	if deviceFilter != "" && deviceFilter != "*" {
		device = NewDeviceFilter(deviceFilter)
	}

	reg := &Registration{
		Device:    device,
		Keys:      AllKeys,
		Intercept: intercept,
		Callback: func(e Event) (bool, error) {
			obj := a.vm.NewObject()
			obj.Set("vKeyCode", e.VKeyCode)
			if k, ok := vkey.ByCode(e.VKeyCode); ok {
				obj.Set("key", k.Name)
			}
			obj.Set("ch", e.Char)
			obj.Set("direction", directionString(e.Direction))
			if e.Device != "" {
				obj.Set("deviceName", e.Device)
			}

			result, err := callback(goja.Undefined(), obj)
			if err != nil {
				return false, err
			}
			return result.ToBoolean(), nil
		},
	}
	a.ctx.Registrations = append(a.ctx.Registrations, reg)
	return nil
}

func directionString(d Direction) string {
	if d == DirectionUp {
		return "up"
	}
	return "down"
}

// SendKey implements §4.I's sendKey(expr, direction?): for "down"/"both"
// it emits, for each chord part left-to-right, that part's own
// ctrl/alt/shift-if-any down strokes followed by its base-key down; for
// "up"/"both" it emits, for each part right-to-left, the base-key up
// followed by its own modifier-ups. The whole sequence is submitted to
// the sender as one batch so a partial OS acceptance is detectable.
func (a *contextAPI) SendKey(expr, direction string) (int, error) {
	tokens, err := vkey.ParseChord(expr, a.layout)
	if err != nil {
		return 0, fmt.Errorf("sendKey: %w", err)
	}
	for _, tok := range tokens {
		if tok.Mods.Hankaku {
			return 0, fmt.Errorf("sendKey: %q resolves to a hankaku-shifted key, which sendKey cannot synthesize", expr)
		}
	}

	var strokes []KeyStroke
	switch strings.ToLower(direction) {
	case "down":
		strokes = downStrokes(tokens)
	case "up":
		strokes = upStrokes(tokens)
	default:
		strokes = append(downStrokes(tokens), upStrokes(tokens)...)
	}

	sent, err := a.sender.SendInput(strokes)
	if err != nil {
		return sent, fmt.Errorf("sendKey: %w", err)
	}
	if sent != len(strokes) {
		return sent, fmt.Errorf("sendKey: OS accepted %d of %d synthesized events", sent, len(strokes))
	}
	return sent, nil
}

func downStrokes(tokens []vkey.Token) []KeyStroke {
	var out []KeyStroke
	for _, tok := range tokens {
		if tok.Mods.Ctrl {
			out = append(out, KeyStroke{Code: ctrlKey.Code, Down: true})
		}
		if tok.Mods.Alt {
			out = append(out, KeyStroke{Code: altKey.Code, Down: true})
		}
		if tok.Mods.Shift {
			out = append(out, KeyStroke{Code: shiftKey.Code, Down: true})
		}
		out = append(out, KeyStroke{Code: tok.Code, Down: true})
	}
	return out
}

func upStrokes(tokens []vkey.Token) []KeyStroke {
	var out []KeyStroke
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		out = append(out, KeyStroke{Code: tok.Code, Down: false})
		if tok.Mods.Shift {
			out = append(out, KeyStroke{Code: shiftKey.Code, Down: false})
		}
		if tok.Mods.Alt {
			out = append(out, KeyStroke{Code: altKey.Code, Down: false})
		}
		if tok.Mods.Ctrl {
			out = append(out, KeyStroke{Code: ctrlKey.Code, Down: false})
		}
	}
	return out
}

// KeyState implements §4.I's getKeyState(vkeyCode) ->
// {state: "up"|"down", toggled: bool}.
func (a *contextAPI) KeyState(vkeyCode int) (state string, toggled bool) {
	down, toggled := a.keys.State(uint16(vkeyCode))
	if down {
		return "down", toggled
	}
	return "up", toggled
}

func (a *contextAPI) SetTimeout(fn goja.Callable, delayMs int64) uint16 {
	id := a.ctx.Timers.Add(time.Duration(delayMs)*time.Millisecond, func() {
		if _, err := fn(goja.Undefined()); err != nil {
			a.log("script: %s: timer callback error: %v", a.ctx.Name, err)
		}
	})
	return uint16(id)
}

func (a *contextAPI) ClearTimeout(id uint16) {
	a.ctx.Timers.Clear(timerID(id))
}

func (a *contextAPI) Log(level string, args ...any) {
	parts := make([]string, len(args))
	for i, v := range args {
		parts[i] = fmt.Sprint(v)
	}
	a.log("script[%s] %s: %s", a.ctx.Name, level, strings.Join(parts, " "))
}
