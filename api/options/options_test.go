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

package options_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tlc/api/options"
	"github.com/gx-org/tlc/base/logsink"
	"github.com/gx-org/tlc/build/loopopt"
	"github.com/gx-org/tlc/cgx/isl"
)

func TestParse(t *testing.T) {
	tests := []struct {
		desc string
		src  string
		want *options.Options
	}{
		{
			desc: "empty",
			src:  "",
			want: &options.Options{},
		},
		{
			desc: "all",
			src: `
passes = ["fold_deltas", "lower_sums"]
tile = [32, 16]
log-level = "debug"
disable-loop-optimizer = true

[schedule]
outer-coincidence = true
maximize-band-depth = true
`,
			want: &options.Options{
				Passes:               []string{"fold_deltas", "lower_sums"},
				Tile:                 []int64{32, 16},
				LogLevel:             "debug",
				DisableLoopOptimizer: true,
				Schedule: options.Schedule{
					OuterCoincidence:  true,
					MaximizeBandDepth: true,
				},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got, err := options.Parse([]byte(test.src))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("unexpected options (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{
			src:  `passes = ["unroll"]`,
			want: []string{`unknown lowering pass "unroll"`},
		},
		{
			src:  `tile = [8, 0]` + "\n" + `log-level = "verbose"`,
			want: []string{"invalid tile size 0", `unknown log level "verbose"`},
		},
		{
			src:  `tile = `,
			want: []string{"cannot parse options"},
		},
	}
	for _, test := range tests {
		_, err := options.Parse([]byte(test.src))
		if err == nil {
			t.Errorf("%q: expected an error", test.src)
			continue
		}
		for _, want := range test.want {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("%q: error %q does not contain %q", test.src, err.Error(), want)
			}
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tlc.toml")
	if err := os.WriteFile(path, []byte("tile = [4]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts, err := options.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := loopopt.Config{Tile: []int64{4}, Schedule: isl.ScheduleOptions{}}
	if diff := cmp.Diff(want, opts.LoopConfig()); diff != "" {
		t.Errorf("unexpected loop configuration (-want +got):\n%s", diff)
	}
	if _, err := options.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestPipeline(t *testing.T) {
	opts := &options.Options{Passes: []string{"lower_sums", "deduce_loop_bounds"}}
	p, err := opts.Pipeline(nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(opts.Passes, p.Passes()); diff != "" {
		t.Errorf("unexpected passes (-want +got):\n%s", diff)
	}
}

func TestNewSink(t *testing.T) {
	opts := &options.Options{LogLevel: "info"}
	var buf bytes.Buffer
	sink, err := opts.NewSink(&buf)
	if err != nil {
		t.Fatal(err)
	}
	sink.Emit(logsink.Debug, "hidden message")
	sink.Emit(logsink.Info, "shown message")
	if got := buf.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "shown message") {
		t.Errorf("unexpected output %q", got)
	}
}
