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

// Package rendezvous reads and writes the small shared-memory-by-file
// record the hook DLL and the host process use to find each other. The
// global WH_KEYBOARD hook maps the hook DLL into every GUI process that
// receives keyboard input; none of those copies share the host's
// address space, so the hook's global hook handle and the host's window
// handle are handed to each injected copy through a file on disk instead
// of through process memory.
package rendezvous

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// recordSize is two little-endian int64 fields: hook handle, host hwnd.
const recordSize = 16

// Record is the rendezvous payload.
type Record struct {
	HookHandle int64
	HostHWND   int64
}

// Path returns the well-known rendezvous file location, alongside other
// per-machine temp state.
func Path() string {
	return filepath.Join(os.TempDir(), "rekey.dat")
}

// Encode serializes r to its 16-byte wire form.
func Encode(r Record) []byte {
	buf := make([]byte, recordSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(r.HookHandle))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(r.HostHWND))
	return buf
}

// Decode parses the 16-byte wire form back into a Record.
func Decode(buf []byte) (Record, error) {
	if len(buf) != recordSize {
		return Record{}, fmt.Errorf("rendezvous: record must be %d bytes, got %d", recordSize, len(buf))
	}
	return Record{
		HookHandle: int64(binary.LittleEndian.Uint64(buf[0:8])),
		HostHWND:   int64(binary.LittleEndian.Uint64(buf[8:16])),
	}, nil
}

// Write stores r at path, overwriting any existing file.
func Write(path string, r Record) error {
	if err := os.WriteFile(path, Encode(r), 0o600); err != nil {
		return fmt.Errorf("rendezvous: write %s: %w", path, err)
	}
	return nil
}

// Read loads the Record stored at path.
func Read(path string) (Record, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("rendezvous: read %s: %w", path, err)
	}
	return Decode(buf)
}
