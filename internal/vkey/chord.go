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
	"fmt"
	"strings"
)

// Layout resolves a single character not found in the named table to a
// virtual-key code plus the modifiers that would have to be held to produce
// it, mirroring VkKeyScanEx. Production code wires this to the OS keyboard
// layout API; tests supply a fake.
type Layout interface {
	ScanChar(ch rune) (code uint16, mods Modifiers, ok bool)
}

// Token is one element of a parsed chord: a single virtual key plus the
// modifiers the token's own character implied (only ever set for
// layout-resolved tokens; named tokens carry no implicit modifiers).
type Token struct {
	Code uint16
	Mods Modifiers
}

// ParseChord splits a `+`-delimited chord expression such as "ctrl+shift+a"
// into its constituent tokens, left to right. Each token is first looked up
// in the named table; if that fails and the token is exactly one character,
// layout is consulted as a fallback. An empty token (leading, trailing, or
// doubled `+`) or an unresolved token is an error.
func ParseChord(expr string, layout Layout) ([]Token, error) {
	parts := strings.Split(expr, "+")
	tokens := make([]Token, 0, len(parts))
	for _, part := range parts {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			return nil, fmt.Errorf("vkey: empty token in chord %q", expr)
		}
		if k, ok := ByName(name); ok {
			tokens = append(tokens, Token{Code: k.Code})
			continue
		}
		runes := []rune(name)
		if len(runes) == 1 && layout != nil {
			if code, mods, ok := layout.ScanChar(runes[0]); ok {
				tokens = append(tokens, Token{Code: code, Mods: mods})
				continue
			}
		}
		return nil, fmt.Errorf("vkey: unrecognized key %q in chord %q", part, expr)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("vkey: empty chord expression")
	}
	return tokens, nil
}
