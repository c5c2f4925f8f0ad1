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

// Package device tracks the raw-input device handles ReKey has seen, giving
// each a printable name a script can match against. Grounded on
// original_source/rekey_exe/src/devices.rs and the teacher's lazy
// "resolve on miss, cache" pattern used for its own window/monitor lookups.
package device

import "sync"

// Handle is an opaque raw-input device handle (HANDLE from WM_INPUT's
// RAWINPUTHEADER.hDevice, widened to a stable integer key).
type Handle uintptr

// Device is a single input source: the handle the OS uses to identify it,
// plus the human-readable name scripts see.
type Device struct {
	Handle Handle
	Name   string
}

// Unknown is substituted when the OS can't (or no longer can) describe a
// device a second time.
const Unknown = "Unknown"

// NameResolver asks the OS for a device's descriptive name, e.g. via
// GetRawInputDeviceInfoW(RIDI_DEVICENAME) followed by a registry/SetupAPI
// lookup for the friendly name. Returns ok=false if the device can no
// longer be queried.
type NameResolver interface {
	ResolveName(h Handle) (name string, ok bool)
}

// Registry is a mutex-guarded cache from device handle to Device, created
// lazily the first time a handle is seen.
type Registry struct {
	mu       sync.Mutex
	resolver NameResolver
	devices  map[Handle]*Device
}

// NewRegistry builds an empty registry backed by resolver.
func NewRegistry(resolver NameResolver) *Registry {
	return &Registry{
		resolver: resolver,
		devices:  make(map[Handle]*Device),
	}
}

// Get returns the Device for h, resolving and caching it on first sight.
// If the resolver fails once, the miss itself isn't cached: the registry
// asks again on the next Get for the same handle and only caches an
// Unknown device once resolution has failed twice.
func (r *Registry) Get(h Handle) *Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.devices[h]; ok {
		return d
	}

	name, ok := r.resolver.ResolveName(h)
	if !ok {
		name, ok = r.resolver.ResolveName(h)
	}
	if !ok {
		name = Unknown
	}

	d := &Device{Handle: h, Name: name}
	r.devices[h] = d
	return d
}

// Forget drops a cached device, forcing re-resolution on the next Get. The
// host does not handle WM_INPUT_DEVICE_CHANGE, so a cached device is only
// dropped when a caller invokes Forget explicitly.
func (r *Registry) Forget(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, h)
}
