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

package applog

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timeNowStub() time.Time { return time.Unix(0, 0) }

func TestLogfWritesFormattedLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 8)
	l.Logf("hello %s", "world")
	l.Close()

	assert.True(t, strings.Contains(buf.String(), "hello world"), buf.String())
}

func TestLogfDropsWhenChannelFull(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{ch: make(chan string), done: make(chan struct{}), now: timeNowStub}
	// no worker started, so the unbuffered channel is always full.
	close(l.done)
	l.Logf("will be dropped")

	require.Equal(t, uint64(1), l.Dropped())
	assert.Empty(t, buf.String())
}

func TestCloseDrainsBeforeReturning(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, 64)
	for i := 0; i < 10; i++ {
		l.Logf("line %d", i)
	}
	l.Close()
	assert.Equal(t, 10, strings.Count(buf.String(), "\n"))
}
