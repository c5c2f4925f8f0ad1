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

// Package rkconfig resolves ReKey's on-disk layout (config root, scripts
// directory, log file) and generates the rekey-api.js stub scripts are
// written against. Grounded on
// original_source/rekey_exe/src/main.rs's get_project_config_dir, which
// used the `directories` crate's ProjectDirs::from("com", "github",
// "joeferner/rekey").
package rkconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rekeyhq/rekey/internal/vkey"
)

// appName is the leaf directory ReKey's config root lives under.
const appName = "rekey"

// Paths is the resolved set of on-disk locations ReKey reads and writes.
type Paths struct {
	Root       string // <UserConfigDir>/rekey
	ScriptsDir string // Root/scripts
	LogFile    string // Root/rekey.log
	APIStub    string // ScriptsDir/rekey-api.js
}

// Resolve computes Paths and ensures Root and ScriptsDir exist.
func Resolve() (Paths, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("rkconfig: resolve user config dir: %w", err)
	}
	root := filepath.Join(base, appName)
	p := Paths{
		Root:       root,
		ScriptsDir: filepath.Join(root, "scripts"),
		LogFile:    filepath.Join(root, "rekey.log"),
	}
	p.APIStub = filepath.Join(p.ScriptsDir, "rekey-api.js")

	if err := os.MkdirAll(p.ScriptsDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("rkconfig: create scripts dir: %w", err)
	}
	return p, nil
}

// WriteAPIStub (re)generates the rekey-api.js reference file scripts in
// ScriptsDir can consult; it is overwritten on every call so it always
// reflects the running binary's vkey table, per 4.I+.
func (p Paths) WriteAPIStub() error {
	var names []string
	for _, k := range vkey.All() {
		names = append(names, k.Name)
	}
	sort.Strings(names)

	var b []byte
	b = append(b, "// Generated by rekey. Do not edit; regenerated on every reload.\n\n"...)
	for _, name := range names {
		k, _ := vkey.ByName(name)
		b = append(b, fmt.Sprintf("const %s = %d;\n", vkey.ConstantName(name), k.Code)...)
	}
	b = append(b, "\n"+apiDocComment...)

	if err := os.WriteFile(p.APIStub, b, 0o644); err != nil {
		return fmt.Errorf("rkconfig: write api stub: %w", err)
	}
	return nil
}

const apiDocComment = `/**
 * rekeyRegister(options, callback) - register a key handler.
 *   options.deviceFilter - "*"/absent matches any device; any other
 *     string matches devices whose name contains it.
 *   options.keyFilter    - only "*"/absent is supported today.
 *   options.intercept    - if true, a truthy callback return value votes
 *     to suppress the physical key; if false (the default) the callback
 *     still runs but its return value never suppresses anything.
 *   callback(event) - event = {vKeyCode, key, ch, direction, deviceName}.
 *
 * sendKey(expr, direction) - synthesize a chord such as "ctrl+shift+t".
 *   direction is "both" (default, down then up), "down", or "up".
 *
 * getKeyState(vkeyCode) - returns {state: "up"|"down", toggled: bool}.
 *
 * setTimeout(fn, delayMs), clearTimeout(id) - per-script timers.
 *
 * console.log/warn/error(...) - written to rekey.log.
 */
`
