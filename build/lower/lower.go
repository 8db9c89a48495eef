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

// Package lower implements the passes lowering index notation into explicit loops.
//
// Every pass is a pure function from an expression to a new expression
// of the same arena. Passes only depend on each other through the shape of
// the IR they produce, so they must run in the order of DefaultPasses.
// Running a pass on its own output returns the output unchanged.
package lower

import (
	"github.com/gx-org/tlc/base/logsink"
	"github.com/gx-org/tlc/build/ir"
	"github.com/pkg/errors"
)

type (
	// Pass transforms an expression.
	Pass func(a *ir.Arena, root ir.Expr) (ir.Expr, error)

	// NamedPass is a pass with a name, used in configurations and logs.
	NamedPass struct {
		Name string
		Pass Pass
	}
)

// Names of the passes.
const (
	FoldDeltasName           = "fold_deltas"
	LowerDeltasName          = "lower_deltas"
	LowerAbstractIndicesName = "lower_abstract_indices"
	LowerSumsName            = "lower_sums"
	ExpandMultiIndicesName   = "expand_multi_indices"
	EmitImplicitLoopsName    = "emit_implicit_loops"
	DeduceLoopBoundsName     = "deduce_loop_bounds"
)

var defaultPasses = []NamedPass{
	{Name: FoldDeltasName, Pass: FoldDeltas},
	{Name: LowerDeltasName, Pass: LowerDeltas},
	{Name: LowerAbstractIndicesName, Pass: LowerAbstractIndices},
	{Name: LowerSumsName, Pass: LowerSums},
	{Name: ExpandMultiIndicesName, Pass: ExpandMultiIndices},
	{Name: EmitImplicitLoopsName, Pass: EmitImplicitLoops},
	{Name: DeduceLoopBoundsName, Pass: DeduceLoopBounds},
}

// DefaultPasses returns the passes of the default pipeline, in order.
func DefaultPasses() []NamedPass {
	return append([]NamedPass(nil), defaultPasses...)
}

// Lookup returns a pass given its name.
func Lookup(name string) (NamedPass, bool) {
	for _, pass := range defaultPasses {
		if pass.Name == name {
			return pass, true
		}
	}
	return NamedPass{}, false
}

// FuncPass lifts a pass to function declarations.
func FuncPass(pass Pass) func(*ir.FuncDecl) (*ir.FuncDecl, error) {
	return func(fn *ir.FuncDecl) (*ir.FuncDecl, error) {
		body, err := pass(fn.Arena(), fn.Body)
		if err != nil {
			return nil, err
		}
		return fn.WithBody(body), nil
	}
}

// Pipeline runs a sequence of passes on function declarations.
type Pipeline struct {
	passes []NamedPass
	sink   logsink.Sink
}

// NewPipeline returns a pipeline running the passes given by their names.
// All the default passes run, in their default order, if no name is given.
// A nil sink discards the logs.
func NewPipeline(sink logsink.Sink, names ...string) (*Pipeline, error) {
	if sink == nil {
		sink = logsink.Discard
	}
	p := &Pipeline{sink: sink}
	if len(names) == 0 {
		p.passes = DefaultPasses()
		return p, nil
	}
	for _, name := range names {
		pass, ok := Lookup(name)
		if !ok {
			return nil, errors.Errorf("unknown lowering pass %q", name)
		}
		p.passes = append(p.passes, pass)
	}
	return p, nil
}

// Passes returns the names of the passes run by the pipeline.
func (p *Pipeline) Passes() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name
	}
	return names
}

// Run all the passes of the pipeline on a function.
// The first error aborts the pipeline.
func (p *Pipeline) Run(fn *ir.FuncDecl) (*ir.FuncDecl, error) {
	for _, pass := range p.passes {
		next, err := FuncPass(pass.Pass)(fn)
		if err != nil {
			logsink.Emitf(p.sink, logsink.Error, "%s: pass %s failed: %v", fn.Name, pass.Name, err)
			return nil, errors.Wrapf(err, "%s: pass %s", fn.Name, pass.Name)
		}
		fn = next
		logsink.Emitf(p.sink, logsink.Debug, "%s: after %s: %s", fn.Name, pass.Name, fn.Body)
	}
	return fn, nil
}
