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

// Package loopopt reorders the loop nests of lowered functions with a
// polyhedral scheduler.
//
// A Job extracts the statements of a function, their iteration domains and
// their memory accesses, computes the dependences between statement
// instances and asks isl for a new schedule respecting them. The schedule
// can be tiled before being translated back into loops.
//
// Every job owns exactly one isl context. All isl objects created by a job
// are freed by Close.
package loopopt

import (
	"fmt"

	"github.com/gx-org/tlc/base/logsink"
	"github.com/gx-org/tlc/base/ordered"
	"github.com/gx-org/tlc/base/uname"
	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/cgx/isl"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrUnsupported is returned when a function cannot be represented in the
// polyhedral model, for example because a loop bound is not affine.
var ErrUnsupported = errors.New("function not supported by the loop optimizer")

// Config of the loop optimizer.
type Config struct {
	// Tile sizes of the outermost band, outermost member first.
	// The schedule is not tiled if Tile is empty.
	Tile []int64
	// Schedule are the options of the isl scheduler.
	Schedule isl.ScheduleOptions
}

// State of a job.
type State int

// States of a job, in order.
const (
	Raw State = iota
	ConstraintsBuilt
	ScheduleReady
	Tiled
	Lowered
	Closed
)

var stateNames = [...]string{
	Raw:              "raw",
	ConstraintsBuilt: "constraints built",
	ScheduleReady:    "schedule ready",
	Tiled:            "tiled",
	Lowered:          "lowered",
	Closed:           "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Job optimizes the loops of a single function.
type Job struct {
	fn    *ir.FuncDecl
	cfg   Config
	sink  logsink.Sink
	state State

	ctx   *isl.Ctx
	names *uname.Unique

	stmts      *ordered.Map[string, *statement]
	params     map[string]ir.VarID
	paramNames map[ir.VarID]string
	arrays     map[ir.VarID]string

	domain      *isl.UnionSet
	validity    *isl.UnionMap
	coincidence *isl.UnionMap
	context     *isl.Set
	schedule    *isl.Schedule
}

// NewJob returns a job optimizing the loops of a function.
// A nil sink discards the logs.
func NewJob(fn *ir.FuncDecl, cfg Config, sink logsink.Sink) (*Job, error) {
	if sink == nil {
		sink = logsink.Discard
	}
	ctx, err := isl.NewCtx()
	if err != nil {
		return nil, err
	}
	if err := ctx.SetScheduleOptions(cfg.Schedule); err != nil {
		return nil, multierr.Append(err, ctx.Free())
	}
	return &Job{
		fn:         fn,
		cfg:        cfg,
		sink:       sink,
		ctx:        ctx,
		names:      uname.New(),
		stmts:      ordered.NewMap[string, *statement](),
		params:     make(map[string]ir.VarID),
		paramNames: make(map[ir.VarID]string),
		arrays:     make(map[ir.VarID]string),
	}, nil
}

// State returns the current state of the job.
func (j *Job) State() State {
	return j.state
}

func (j *Job) checkState(op string, want ...State) error {
	for _, s := range want {
		if j.state == s {
			return nil
		}
	}
	return fmterr.Internalf("loopopt: %s called on %s in state %s", op, j.fn.Name, j.state)
}

func (j *Job) debugf(format string, a ...any) {
	logsink.Emitf(j.sink, logsink.Debug, "%s: "+format, append([]any{j.fn.Name}, a...)...)
}

// Close frees all the isl objects of the job.
func (j *Job) Close() error {
	if j.state == Closed {
		return nil
	}
	j.state = Closed
	if j.domain != nil {
		j.domain.Free()
	}
	if j.validity != nil {
		j.validity.Free()
	}
	if j.coincidence != nil {
		j.coincidence.Free()
	}
	if j.context != nil {
		j.context.Free()
	}
	if j.schedule != nil {
		j.schedule.Free()
	}
	return j.ctx.Free()
}

// Optimize computes a new schedule for the loops of a function and returns
// the function with its loops reordered.
// Functions which cannot be represented in the polyhedral model are returned
// unchanged, with a warning sent to the sink.
func Optimize(fn *ir.FuncDecl, cfg Config, sink logsink.Sink) (_ *ir.FuncDecl, err error) {
	job, err := NewJob(fn, cfg, sink)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, job.Close())
	}()
	if err := job.Extract(); err != nil {
		if errors.Is(err, ErrUnsupported) {
			logsink.Emitf(job.sink, logsink.Warning, "%s: loops not optimized: %v", fn.Name, err)
			return fn, nil
		}
		return nil, err
	}
	if err := job.Schedule(); err != nil {
		return nil, err
	}
	if len(cfg.Tile) > 0 {
		if err := job.Tile(cfg.Tile); err != nil {
			return nil, err
		}
	}
	return job.Lower()
}
