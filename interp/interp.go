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

// Package interp evaluates IR expressions on concrete values.
//
// The interpreter is a reference implementation of the semantics of the IR:
// it runs before and after lowering to check that passes preserve the
// values computed by a function. All the numbers are represented as float64
// and all the tensors as row-major Tensor.
package interp

import (
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/internal/base/scope"
	"github.com/pkg/errors"
)

type (
	// Args maps parameters to their values: a *Tensor for tensors,
	// an int64 for indices and integers, a float64 for floats and a bool for booleans.
	// Tensors are modified in place by assignments.
	Args map[ir.VarID]any

	// Range of an index: [Lower, Upper).
	Range struct {
		Lower, Upper int64
	}

	// Ranger returns the range of an index.
	Ranger func(*ir.VarDecl, Env) (Range, bool)

	// Option of the interpreter.
	Option func(*interpreter)

	// Value returned by an evaluation.
	// Tensor is nil for scalar values.
	Value struct {
		Scalar float64
		Tensor *Tensor
		// Void is true for the value of a statement.
		Void bool
	}

	// Env gives access to the values of variables during an evaluation.
	Env interface {
		// Int returns the value of a scalar variable as an integer.
		Int(ir.VarID) (int64, bool)
	}
)

// WithRanges sets the ranges of indices bound by sums and deltas.
func WithRanges(ranges map[ir.VarID]Range) Option {
	return func(itp *interpreter) {
		itp.rangers = append(itp.rangers, func(decl *ir.VarDecl, _ Env) (Range, bool) {
			r, ok := ranges[decl.ID]
			return r, ok
		})
	}
}

// WithRanger adds a function returning the ranges of indices.
// Rangers are queried in order.
func WithRanger(r Ranger) Option {
	return func(itp *interpreter) {
		itp.rangers = append(itp.rangers, r)
	}
}

// WithIndices sets the values of free indices.
func WithIndices(indices map[ir.VarID]int64) Option {
	return func(itp *interpreter) {
		for id, v := range indices {
			itp.root.Define(id, &cell{v: scalar(float64(v))})
		}
	}
}

// Eval evaluates an expression.
func Eval(a *ir.Arena, e ir.Expr, args Args, opts ...Option) (Value, error) {
	itp, err := newInterpreter(a, args, opts)
	if err != nil {
		return Value{}, err
	}
	v, err := itp.eval(itp.root, e)
	if err != nil {
		return Value{}, err
	}
	return v.export(), nil
}

// Run evaluates the body of a function.
// Every parameter of the function must have a value in args.
func Run(fn *ir.FuncDecl, args Args, opts ...Option) (Value, error) {
	for _, id := range fn.Params {
		if _, ok := args[id]; !ok {
			decl, err := fn.Arena().Var(id)
			if err != nil {
				return Value{}, err
			}
			return Value{}, errors.Errorf("%s: missing argument for parameter %s", fn.Name, decl.Name)
		}
	}
	return Eval(fn.Arena(), fn.Body, args, opts...)
}

type cell struct {
	v val
}

func (c *cell) String() string {
	return c.v.String()
}

type interpreter struct {
	arena   *ir.Arena
	root    *scope.RWScope[ir.VarID, *cell]
	rangers []Ranger
}

func newInterpreter(a *ir.Arena, args Args, opts []Option) (*interpreter, error) {
	itp := &interpreter{
		arena: a,
		root:  scope.NewScope[ir.VarID, *cell](nil),
	}
	for id, arg := range args {
		v, err := toVal(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %s", id)
		}
		itp.root.Define(id, &cell{v: v})
	}
	for _, opt := range opts {
		opt(itp)
	}
	// Ranges deduced by the compiler are used when no other ranger knows the index.
	itp.rangers = append(itp.rangers, boundsRanger)
	return itp, nil
}

type env struct {
	sc *scope.RWScope[ir.VarID, *cell]
}

func (e env) Int(id ir.VarID) (int64, bool) {
	c, ok := e.sc.Find(id)
	if !ok || !c.v.isScalar() {
		return 0, false
	}
	return int64(c.v.s), true
}

func (itp *interpreter) indexRange(sc *scope.RWScope[ir.VarID, *cell], id ir.VarID) (Range, error) {
	decl, err := itp.arena.Var(id)
	if err != nil {
		return Range{}, err
	}
	for _, ranger := range itp.rangers {
		if r, ok := ranger(decl, env{sc: sc}); ok {
			return r, nil
		}
	}
	return Range{}, errors.Errorf("no range for index %s", decl.Name)
}
