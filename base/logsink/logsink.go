// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logsink defines the narrow logging interface used by the compiler.
//
// The compiler never writes to a global logger: passes and the loop
// optimizer emit messages to a Sink given by the caller.
package logsink

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
)

// Level of a message.
type Level int

// Levels, from the most verbose to the least.
const (
	Debug Level = iota
	Info
	Warning
	Error
)

// String representation of a level.
func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel returns a level given its name.
// The empty string is the warning level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "", "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Error, errors.Errorf("unknown log level %q", s)
}

// Sink receives messages from the compiler.
type Sink interface {
	Emit(level Level, msg string)
}

// Emitf formats a message and sends it to a sink.
// A nil sink discards the message.
func Emitf(s Sink, level Level, format string, a ...any) {
	if s == nil {
		return
	}
	s.Emit(level, fmt.Sprintf(format, a...))
}

type discard struct{}

func (discard) Emit(Level, string) {}

// Discard is a sink dropping all messages.
var Discard Sink = discard{}

// Terminal renders messages using pterm prefix printers.
type Terminal struct {
	min      Level
	printers map[Level]*pterm.PrefixPrinter
}

var _ Sink = (*Terminal)(nil)

// NewTerminal returns a sink writing messages at or above min to w.
func NewTerminal(w io.Writer, min Level) *Terminal {
	return &Terminal{
		min: min,
		printers: map[Level]*pterm.PrefixPrinter{
			// pterm.Debug only prints when debug messages are globally enabled.
			Debug:   pterm.Debug.WithDebugger(false).WithWriter(w),
			Info:    pterm.Info.WithWriter(w),
			Warning: pterm.Warning.WithWriter(w),
			Error:   pterm.Error.WithWriter(w),
		},
	}
}

// Emit a message.
func (t *Terminal) Emit(level Level, msg string) {
	if level < t.min {
		return
	}
	printer, ok := t.printers[level]
	if !ok {
		printer = t.printers[Error]
	}
	printer.Println(msg)
}

// Message recorded by a Recorder.
type Message struct {
	Level Level
	Text  string
}

// Recorder keeps all the messages in memory.
type Recorder struct {
	mut  sync.Mutex
	msgs []Message
}

var _ Sink = (*Recorder)(nil)

// Emit records a message.
func (r *Recorder) Emit(level Level, msg string) {
	r.mut.Lock()
	defer r.mut.Unlock()
	r.msgs = append(r.msgs, Message{Level: level, Text: msg})
}

// Messages returns a copy of all the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mut.Lock()
	defer r.mut.Unlock()
	return append([]Message{}, r.msgs...)
}
