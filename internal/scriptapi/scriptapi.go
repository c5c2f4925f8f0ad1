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

// Package scriptapi wires the host functions a ReKey script sees
// (rekeyRegister, sendKey, getKeyState, setTimeout/clearTimeout, console)
// into a goja.Runtime. Grounded on
// original_source/rekey_exe/src/scripts.rs's initialize_context, which
// registers the same surface (minus timers, which
// original_source/rekey_exe/src/js/timer.rs implements separately) into
// a boa_engine::Context; goja is the Go-ecosystem equivalent embedded VM
// (referenced by other_examples/manifests/helixml-helix and
// .../ethereum-go-ethereum).
package scriptapi

import (
	"fmt"

	"github.com/dop251/goja"
)

// HostAPI is everything a script's global functions delegate to. The
// concrete implementation lives in internal/script, which owns the
// registration list and timer set this API mutates; scriptapi itself
// never touches worker state directly, only through this interface.
type HostAPI interface {
	// Register records a rekeyRegister(options, callback) call.
	// deviceFilter is options.deviceFilter ("*"/absent means match any
	// device; any other string means Contains(string)); intercept is
	// options.intercept; callback is invoked with an event object for
	// every matching key transition.
	Register(deviceFilter string, intercept bool, callback goja.Callable) error

	// SendKey synthesizes the chord expr and returns how many individual
	// key-events were actually accepted by the OS. direction is "both"
	// (default), "down", or "up", per §4.I.
	SendKey(expr, direction string) (int, error)

	// KeyState reports whether vkeyCode is currently held down and
	// whether it has been toggled an odd number of times (meaningful
	// for CapsLock/NumLock/ScrollLock).
	KeyState(vkeyCode int) (state string, toggled bool)

	// SetTimeout schedules fn to run after delayMs milliseconds and
	// returns a non-zero handle; ClearTimeout(handle) cancels it.
	SetTimeout(fn goja.Callable, delayMs int64) uint16
	ClearTimeout(id uint16)

	// Log writes a console.log/warn/error line.
	Log(level string, args ...any)
}

// Install registers every ReKey global into vm, delegating to api.
func Install(vm *goja.Runtime, api HostAPI) error {
	console := vm.NewObject()
	for _, level := range []string{"log", "warn", "error", "info"} {
		lvl := level
		if err := console.Set(level, func(call goja.FunctionCall) goja.Value {
			args := make([]any, len(call.Arguments))
			for i, a := range call.Arguments {
				args[i] = a.Export()
			}
			api.Log(lvl, args...)
			return goja.Undefined()
		}); err != nil {
			return fmt.Errorf("scriptapi: register console.%s: %w", level, err)
		}
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("scriptapi: register console: %w", err)
	}

	if err := vm.Set("rekeyRegister", func(call goja.FunctionCall) goja.Value {
		return registerHandler(vm, api, call)
	}); err != nil {
		return fmt.Errorf("scriptapi: register rekeyRegister: %w", err)
	}

	if err := vm.Set("sendKey", func(call goja.FunctionCall) goja.Value {
		return sendKeyHandler(vm, api, call)
	}); err != nil {
		return fmt.Errorf("scriptapi: register sendKey: %w", err)
	}

	if err := vm.Set("getKeyState", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) != 1 {
			panic(vm.NewTypeError("getKeyState(vkeyCode) expects 1 argument"))
		}
		code := int(call.Arguments[0].ToInteger())
		state, toggled := api.KeyState(code)
		obj := vm.NewObject()
		obj.Set("state", state)
		obj.Set("toggled", toggled)
		return obj
	}); err != nil {
		return fmt.Errorf("scriptapi: register getKeyState: %w", err)
	}

	if err := vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		return setTimeoutHandler(vm, api, call)
	}); err != nil {
		return fmt.Errorf("scriptapi: register setTimeout: %w", err)
	}

	if err := vm.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) != 1 {
			return goja.Undefined()
		}
		api.ClearTimeout(uint16(call.Arguments[0].ToInteger()))
		return goja.Undefined()
	}); err != nil {
		return fmt.Errorf("scriptapi: register clearTimeout: %w", err)
	}

	return nil
}

func registerHandler(vm *goja.Runtime, api HostAPI, call goja.FunctionCall) goja.Value {
	if len(call.Arguments) != 2 {
		panic(vm.NewTypeError(fmt.Sprintf("rekeyRegister(options, callback) expects 2 arguments, got %d", len(call.Arguments))))
	}

	optsVal, cbVal := call.Arguments[0], call.Arguments[1]
	callback, ok := goja.AssertFunction(cbVal)
	if !ok {
		panic(vm.NewTypeError("rekeyRegister: second argument must be a function"))
	}

	opts := optsVal.ToObject(vm)
	deviceFilter := stringField(opts, "deviceFilter")
	keyFilter := stringField(opts, "keyFilter")
	if keyFilter != "" && keyFilter != "*" {
		panic(vm.NewTypeError(fmt.Sprintf("rekeyRegister: unsupported keyFilter %q, only \"*\" is recognized", keyFilter)))
	}
	intercept := boolField(opts, "intercept")

	if err := api.Register(deviceFilter, intercept, callback); err != nil {
		panic(vm.NewGoError(err))
	}
	return goja.Undefined()
}

func boolField(obj *goja.Object, name string) bool {
	if obj == nil {
		return false
	}
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return false
	}
	return v.ToBoolean()
}

func stringField(obj *goja.Object, name string) string {
	if obj == nil {
		return ""
	}
	v := obj.Get(name)
	if v == nil || goja.IsUndefined(v) {
		return ""
	}
	return v.String()
}

func sendKeyHandler(vm *goja.Runtime, api HostAPI, call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 1 {
		panic(vm.NewTypeError("sendKey(expr, direction?) expects at least 1 argument"))
	}
	expr := call.Arguments[0].String()
	direction := "both"
	if len(call.Arguments) > 1 {
		direction = call.Arguments[1].String()
	}
	n, err := api.SendKey(expr, direction)
	if err != nil {
		panic(vm.NewGoError(err))
	}
	return vm.ToValue(n)
}

func setTimeoutHandler(vm *goja.Runtime, api HostAPI, call goja.FunctionCall) goja.Value {
	if len(call.Arguments) < 2 {
		panic(vm.NewTypeError("setTimeout(fn, delayMs) expects 2 arguments"))
	}
	fn, ok := goja.AssertFunction(call.Arguments[0])
	if !ok {
		panic(vm.NewTypeError("setTimeout: first argument must be a function"))
	}
	delay := call.Arguments[1].ToInteger()
	id := api.SetTimeout(fn, delay)
	return vm.ToValue(id)
}
