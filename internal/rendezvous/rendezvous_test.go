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

package rendezvous

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := Record{HookHandle: 0x1122334455, HostHWND: 0x998877}
	buf := Encode(r)
	require.Len(t, buf, recordSize)

	got, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestDecodeRejectsWrongSize(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rekey.dat")
	r := Record{HookHandle: 42, HostHWND: 7}

	require.NoError(t, Write(path, r))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestReadMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	_, err := Read(filepath.Join(dir, "missing.dat"))
	assert.Error(t, err)
}
