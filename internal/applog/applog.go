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

// Package applog is an async, channel-backed logger: callers never block
// on I/O, a single goroutine drains the channel to a writer, and a full
// buffer drops the newest message rather than stalling the hot path (the
// keyboard hook callback, in ReKey's case). Generalized from the
// teacher's logChan/logWorker/logf trio in main.go.
package applog

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// DefaultChanSize matches the teacher's buffer size; the hook callback
// can't afford to block on a slow disk the way a GUI app's logger can't
// afford to block the message loop.
const DefaultChanSize = 4096

// Logger drains formatted messages to w on its own goroutine.
type Logger struct {
	ch      chan string
	done    chan struct{}
	dropped atomic.Uint64
	now     func() time.Time
}

// New starts a Logger writing to w with a channel of size bufSize. Call
// Close to drain remaining messages and stop the worker goroutine.
func New(w io.Writer, bufSize int) *Logger {
	if bufSize <= 0 {
		bufSize = DefaultChanSize
	}
	l := &Logger{
		ch:   make(chan string, bufSize),
		done: make(chan struct{}),
		now:  time.Now,
	}
	go l.worker(w)
	return l
}

func (l *Logger) worker(w io.Writer) {
	defer close(l.done)
	for msg := range l.ch {
		fmt.Fprint(w, msg)
	}
}

// Logf formats and enqueues a log line, timestamped `%F %X`-style
// (date then time, e.g. 2006-01-02 15:04:05). If the channel is full
// the message is dropped and counted rather than blocking the caller.
func (l *Logger) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s\n", l.now().Format("2006-01-02 15:04:05"), msg)
	select {
	case l.ch <- line:
	default:
		l.dropped.Add(1)
	}
}

// Dropped reports how many log lines were discarded due to backpressure.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close stops accepting new messages, waits for the worker to drain the
// channel, then returns.
func (l *Logger) Close() {
	close(l.ch)
	<-l.done
}
