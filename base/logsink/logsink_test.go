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

package logsink_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tlc/base/logsink"
)

func TestRecorder(t *testing.T) {
	rec := &logsink.Recorder{}
	logsink.Emitf(rec, logsink.Info, "pass %s", "deltas")
	logsink.Emitf(rec, logsink.Debug, "%d nodes", 3)
	logsink.Emitf(nil, logsink.Error, "dropped")
	want := []logsink.Message{
		{Level: logsink.Info, Text: "pass deltas"},
		{Level: logsink.Debug, Text: "3 nodes"},
	}
	if diff := cmp.Diff(want, rec.Messages()); diff != "" {
		t.Errorf("unexpected messages (-want +got):\n%s", diff)
	}
}

func TestTerminalFiltersLevels(t *testing.T) {
	var buf bytes.Buffer
	term := logsink.NewTerminal(&buf, logsink.Warning)
	term.Emit(logsink.Info, "hidden message")
	term.Emit(logsink.Warning, "visible message")
	got := buf.String()
	if strings.Contains(got, "hidden message") {
		t.Errorf("info message written with a warning threshold:\n%s", got)
	}
	if !strings.Contains(got, "visible message") {
		t.Errorf("warning message missing:\n%s", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		s    string
		want logsink.Level
		err  bool
	}{
		{s: "debug", want: logsink.Debug},
		{s: "INFO", want: logsink.Info},
		{s: "", want: logsink.Warning},
		{s: "error", want: logsink.Error},
		{s: "verbose", err: true},
	}
	for _, test := range tests {
		got, err := logsink.ParseLevel(test.s)
		if test.err {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected an error", test.s)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", test.s, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseLevel(%q) = %v but want %v", test.s, got, test.want)
		}
	}
}
