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

// Package options specifies the options of the compiler.
//
// Options are usually read from a TOML file:
//
//	passes = ["fold_deltas", "lower_abstract_indices", "lower_sums"]
//	tile = [32, 32]
//	log-level = "debug"
//
//	[schedule]
//	outer-coincidence = true
package options

import (
	"io"
	"os"

	"github.com/gx-org/tlc/base/logsink"
	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/loopopt"
	"github.com/gx-org/tlc/build/lower"
	"github.com/gx-org/tlc/cgx/isl"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

type (
	// Schedule are the options of the polyhedral scheduler.
	Schedule struct {
		// OuterCoincidence requires the outermost band members to be coincident.
		OuterCoincidence bool `toml:"outer-coincidence"`
		// SerializeSCCs prevents the fusion of strongly connected components.
		SerializeSCCs bool `toml:"serialize-sccs"`
		// MaximizeBandDepth maximizes the number of members of bands.
		MaximizeBandDepth bool `toml:"maximize-band-depth"`
	}

	// Options of a compilation.
	Options struct {
		// Passes are the names of the lowering passes to run, in order.
		// All the default passes run if Passes is empty.
		Passes []string `toml:"passes,omitempty"`
		// DisableLoopOptimizer keeps the loops generated by the lowering passes.
		DisableLoopOptimizer bool `toml:"disable-loop-optimizer"`
		// Tile sizes of the outermost band of the schedule.
		Tile []int64 `toml:"tile,omitempty"`
		// Schedule are the options of the scheduler.
		Schedule Schedule `toml:"schedule"`
		// LogLevel is the minimum level of the messages displayed.
		LogLevel string `toml:"log-level,omitempty"`
	}
)

// Parse options in the TOML format.
func Parse(data []byte) (*Options, error) {
	opts := &Options{}
	if err := toml.Unmarshal(data, opts); err != nil {
		return nil, errors.Wrap(err, "cannot parse options")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Load options from a TOML file.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read options")
	}
	opts, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return opts, nil
}

// Validate returns all the invalid values of the options.
func (o *Options) Validate() error {
	var errs fmterr.Errors
	for _, name := range o.Passes {
		if _, ok := lower.Lookup(name); !ok {
			errs.Append(errors.Errorf("unknown lowering pass %q", name))
		}
	}
	for _, size := range o.Tile {
		if size <= 0 {
			errs.Append(errors.Errorf("invalid tile size %d", size))
		}
	}
	if _, err := logsink.ParseLevel(o.LogLevel); err != nil {
		errs.Append(err)
	}
	return errs.ToError()
}

// NewSink returns a sink displaying messages at or above the log level to w.
func (o *Options) NewSink(w io.Writer) (logsink.Sink, error) {
	level, err := logsink.ParseLevel(o.LogLevel)
	if err != nil {
		return nil, err
	}
	return logsink.NewTerminal(w, level), nil
}

// Pipeline returns the lowering pipeline running the passes of the options.
func (o *Options) Pipeline(sink logsink.Sink) (*lower.Pipeline, error) {
	return lower.NewPipeline(sink, o.Passes...)
}

// LoopConfig returns the configuration of the loop optimizer.
func (o *Options) LoopConfig() loopopt.Config {
	return loopopt.Config{
		Tile: append([]int64(nil), o.Tile...),
		Schedule: isl.ScheduleOptions{
			OuterCoincidence:  o.Schedule.OuterCoincidence,
			SerializeSCCs:     o.Schedule.SerializeSCCs,
			MaximizeBandDepth: o.Schedule.MaximizeBandDepth,
		},
	}
}
