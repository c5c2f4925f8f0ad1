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

import "strings"

// KeyFilter decides whether a registration is interested in a given
// event at all, as distinct from device matching. Per the project's
// resolved Open Question, only the "match everything" variant is
// implemented today: scripts that only want specific keys inspect
// event.vKeyCode/event.ch themselves inside the callback. The type still
// exists (rather than being dropped entirely) so a future predicate
// variant can be added without changing Worker's dispatch loop or
// Registration's shape.
type KeyFilter struct {
	all bool
}

// AllKeys is the only KeyFilter value today.
var AllKeys = KeyFilter{all: true}

// Matches reports whether f is interested in vkeyCode.
func (f KeyFilter) Matches(vkeyCode uint16) bool {
	return f.all
}

// DeviceFilter decides whether a registration cares about events from a
// particular device. An empty filter matches every device.
type DeviceFilter struct {
	substr string
}

// AnyDevice matches every device.
var AnyDevice = DeviceFilter{}

// NewDeviceFilter builds a filter matching device names containing
// substr, case-insensitively. An empty substr is equivalent to
// AnyDevice.
func NewDeviceFilter(substr string) DeviceFilter {
	return DeviceFilter{substr: strings.ToLower(strings.TrimSpace(substr))}
}

// Matches reports whether deviceName satisfies f.
func (f DeviceFilter) Matches(deviceName string) bool {
	if f.substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(deviceName), f.substr)
}

// Direction is a dispatched event's key transition: which way the key
// moved, not a registration's filter (rekeyRegister has no such option;
// every registration sees both directions and inspects event.direction
// itself if it cares).
type Direction int

const (
	DirectionDown Direction = iota
	DirectionUp
)

// Registration is one rekeyRegister(...) call from a script.
type Registration struct {
	Device DeviceFilter
	Keys   KeyFilter
	// Intercept mirrors the options.intercept field from rekeyRegister:
	// when false, the callback still runs but its return value is never
	// counted toward the aggregate suppression verdict.
	Intercept bool
	Callback  func(Event) (bool, error)
}
