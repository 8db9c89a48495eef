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

// Package api is the entry point of the compiler.
//
// Compile lowers a function written in index notation into explicit loops
// and reorders its loop nests. The result is given to code generators.
package api

import (
	"github.com/gx-org/tlc/api/options"
	"github.com/gx-org/tlc/base/logsink"
	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/loopopt"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

// codegenKinds are the kinds of the nodes supported by code generators.
var codegenKinds = set.From(ir.AllNodeKinds()).Difference(set.From([]ir.NodeKind{
	ir.InvalidNode,
	ir.SumNode,
	ir.DeltaNode,
}))

// Compile lowers a function and optimizes its loops.
// Default options are used if opts is nil. A nil sink discards the logs.
// Errors print the stack trace where they were generated when formatted with %+v.
func Compile(a *ir.Arena, fn *ir.FuncDecl, opts *options.Options, sink logsink.Sink) (*ir.FuncDecl, error) {
	lowered, err := compile(a, fn, opts, sink)
	if err != nil {
		return nil, fmterr.ToStackTraceError(err)
	}
	return lowered, nil
}

func compile(a *ir.Arena, fn *ir.FuncDecl, opts *options.Options, sink logsink.Sink) (*ir.FuncDecl, error) {
	if fn.Arena() != a {
		return nil, errors.Errorf("function %s does not belong to the arena", fn.Name)
	}
	if opts == nil {
		opts = &options.Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = logsink.Discard
	}
	pipeline, err := opts.Pipeline(sink)
	if err != nil {
		return nil, err
	}
	lowered, err := pipeline.Run(fn)
	if err != nil {
		return nil, err
	}
	prefix := fmterr.PrefixWith("%s: ", fn.Name)
	if !opts.DisableLoopOptimizer {
		if lowered, err = loopopt.Optimize(lowered, opts.LoopConfig(), sink); err != nil {
			return nil, prefix(errors.Wrap(err, "loop optimizer"))
		}
	}
	if err := CheckLowered(lowered); err != nil {
		return nil, prefix(err)
	}
	return lowered, nil
}

// CheckLowered returns an error for every node of a function not supported
// by code generators.
func CheckLowered(fn *ir.FuncDecl) error {
	var errs fmterr.Errors
	for e := range ir.Walk(fn.Body) {
		if !codegenKinds.Contains(e.Kind()) {
			errs.Appendf(e, "%s not supported by code generators", e.Kind())
			continue
		}
		switch e.Kind() {
		case ir.CallNode:
			if in := e.Intrinsic(); in == ir.LowerBound || in == ir.UpperBound {
				errs.Appendf(e, "bound placeholder not replaced")
			}
		case ir.ConstructNode:
			if _, ok := e.TargetType().(*ir.TupleType); ok {
				errs.Appendf(e, "multi-index not expanded")
			}
		case ir.IndexRefNode:
			if e.Decl().Role == ir.AbstractIndex {
				errs.Appendf(e, "abstract index not lowered")
			}
		}
	}
	return errs.ToError()
}
