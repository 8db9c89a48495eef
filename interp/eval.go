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

package interp

import (
	"fmt"
	"go/token"
	"math"

	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/ir/irkind"
	"github.com/gx-org/tlc/build/lower"
	"github.com/gx-org/tlc/internal/base/scope"
	"github.com/pkg/errors"
)

type valKind int

const (
	voidVal valKind = iota
	scalarVal
	viewVal
)

type val struct {
	kind valKind
	s    float64
	v    view
}

var void = val{kind: voidVal}

func scalar(s float64) val {
	return val{kind: scalarVal, s: s}
}

func boolean(b bool) val {
	if b {
		return scalar(1)
	}
	return scalar(0)
}

func (v val) isScalar() bool {
	return v.kind == scalarVal
}

func (v val) String() string {
	switch v.kind {
	case scalarVal:
		return fmt.Sprint(v.s)
	case viewVal:
		return fmt.Sprintf("view%v@%d", v.v.axes, v.v.offset)
	}
	return "void"
}

// load returns the value of an element view as a scalar.
func (v val) load() val {
	if v.kind == viewVal && v.v.isElement() {
		return scalar(v.v.t.Data[v.v.offset])
	}
	return v
}

func (v val) export() Value {
	v = v.load()
	switch v.kind {
	case scalarVal:
		return Value{Scalar: v.s}
	case viewVal:
		t := NewTensor(v.v.axes...)
		copy(t.Data, v.v.t.Data[v.v.offset:v.v.offset+len(t.Data)])
		return Value{Tensor: t}
	}
	return Value{Void: true}
}

func toVal(arg any) (val, error) {
	switch a := arg.(type) {
	case *Tensor:
		return val{kind: viewVal, v: a.view()}, nil
	case int64:
		return scalar(float64(a)), nil
	case int:
		return scalar(float64(a)), nil
	case float64:
		return scalar(a), nil
	case bool:
		return boolean(a), nil
	}
	return val{}, errors.Errorf("value %v of type %T not supported", arg, arg)
}

func boundsRanger(decl *ir.VarDecl, e Env) (Range, bool) {
	rng, ok := lower.IndexRange(decl)
	if !ok {
		return Range{}, false
	}
	bound := func(b lower.Bound) (int64, bool) {
		if b.IsStatic() {
			return b.Offset, true
		}
		param, ok := e.Int(b.Param)
		return param + b.Offset, ok
	}
	lo, okLo := bound(rng.Lower)
	hi, okHi := bound(rng.Upper)
	return Range{Lower: lo, Upper: hi}, okLo && okHi
}

func (itp *interpreter) scalar(sc *scope.RWScope[ir.VarID, *cell], e ir.Expr) (float64, error) {
	v, err := itp.eval(sc, e)
	if err != nil {
		return 0, err
	}
	v = v.load()
	if !v.isScalar() {
		return 0, fmterr.Malformedf(e, "expression does not evaluate to a scalar")
	}
	return v.s, nil
}

func (itp *interpreter) int(sc *scope.RWScope[ir.VarID, *cell], e ir.Expr) (int64, error) {
	s, err := itp.scalar(sc, e)
	if err != nil {
		return 0, err
	}
	return int64(s), nil
}

func (itp *interpreter) eval(sc *scope.RWScope[ir.VarID, *cell], e ir.Expr) (val, error) {
	switch e.Kind() {
	case ir.LiteralNode:
		switch v := e.Value().(type) {
		case int64:
			return scalar(float64(v)), nil
		case float64:
			return scalar(v), nil
		case bool:
			return boolean(v), nil
		}
		return void, fmterr.Malformedf(e, "literal of type %s not supported", e.Type())
	case ir.VarRefNode, ir.IndexRefNode:
		c, ok := sc.Find(e.Var())
		if !ok {
			return void, fmterr.Malformedf(e, "undefined variable")
		}
		return c.v, nil
	case ir.BinaryNode:
		if ir.IsAssign(e.Op()) {
			return void, itp.assign(sc, e)
		}
		return itp.binary(sc, e)
	case ir.UnaryNode:
		x, err := itp.scalar(sc, e.X())
		if err != nil {
			return void, err
		}
		switch e.Op() {
		case token.SUB:
			return scalar(-x), nil
		case token.NOT:
			return boolean(x == 0), nil
		}
		return void, fmterr.Malformedf(e, "unary operator %s not supported", e.Op())
	case ir.SubscriptNode:
		return itp.subscript(sc, e)
	case ir.SumNode:
		rng, err := itp.indexRange(sc, e.Var())
		if err != nil {
			return void, fmterr.Malformed(e, err)
		}
		total := 0.0
		for i := rng.Lower; i < rng.Upper; i++ {
			inner := sc.NewChild()
			inner.Define(e.Var(), &cell{v: scalar(float64(i))})
			s, err := itp.scalar(inner, e.Body())
			if err != nil {
				return void, err
			}
			total += s
		}
		return scalar(total), nil
	case ir.ForNode, ir.ForAllNode:
		lo, err := itp.int(sc, e.Lower())
		if err != nil {
			return void, err
		}
		hi, err := itp.int(sc, e.Upper())
		if err != nil {
			return void, err
		}
		for i := lo; i < hi; i++ {
			inner := sc.NewChild()
			inner.Define(e.Var(), &cell{v: scalar(float64(i))})
			if _, err := itp.eval(inner, e.Body()); err != nil {
				return void, err
			}
		}
		return void, nil
	case ir.DeltaNode:
		x, err := itp.scalar(sc, e.X())
		if err != nil {
			return void, err
		}
		y, err := itp.scalar(sc, e.Y())
		if err != nil {
			return void, err
		}
		return boolean(x == y), nil
	case ir.CallNode:
		return itp.call(sc, e)
	case ir.CompoundNode:
		inner := sc.NewChild()
		last := void
		for _, child := range e.Children() {
			v, err := itp.eval(inner, child)
			if err != nil {
				return void, err
			}
			last = v.load()
		}
		return last, nil
	case ir.ConvertNode:
		x, err := itp.scalar(sc, e.X())
		if err != nil {
			return void, err
		}
		return scalar(convert(e.TargetType().Kind(), x)), nil
	case ir.LocalDefNode:
		v, err := itp.eval(sc, e.X())
		if err != nil {
			return void, err
		}
		sc.Define(e.Var(), &cell{v: v.load()})
		return void, nil
	case ir.IfNode:
		cond, err := itp.scalar(sc, e.X())
		if err != nil {
			return void, err
		}
		if cond != 0 {
			return itp.eval(sc.NewChild(), e.Y())
		}
		if els := e.Else(); !els.IsNil() {
			return itp.eval(sc.NewChild(), els)
		}
		return void, nil
	case ir.MacroNode:
		return void, nil
	case ir.SpawnNode:
		if _, err := itp.eval(sc.NewChild(), e.Body()); err != nil {
			return void, err
		}
		return void, nil
	}
	return void, fmterr.Malformedf(e, "%s node cannot be evaluated", e.Kind())
}

func convert(knd irkind.Kind, x float64) float64 {
	switch {
	case knd == irkind.Bool:
		if x != 0 {
			return 1
		}
		return 0
	case irkind.IsInteger(knd):
		return math.Trunc(x)
	case knd == irkind.Float32 || knd == irkind.Bfloat16:
		return float64(float32(x))
	}
	return x
}

func (itp *interpreter) binary(sc *scope.RWScope[ir.VarID, *cell], e ir.Expr) (val, error) {
	x, err := itp.scalar(sc, e.X())
	if err != nil {
		return void, err
	}
	y, err := itp.scalar(sc, e.Y())
	if err != nil {
		return void, err
	}
	r, err := apply(e.Op(), x, y)
	if err != nil {
		return void, fmterr.Malformed(e, err)
	}
	if irkind.IsInteger(e.Type().Kind()) && e.Op() == token.QUO {
		r = math.Trunc(r)
	}
	return scalar(r), nil
}

func apply(op token.Token, x, y float64) (float64, error) {
	switch op {
	case token.ADD:
		return x + y, nil
	case token.SUB:
		return x - y, nil
	case token.MUL:
		return x * y, nil
	case token.QUO:
		return x / y, nil
	case token.REM:
		return math.Mod(x, y), nil
	case token.EQL:
		return boolean(x == y).s, nil
	case token.NEQ:
		return boolean(x != y).s, nil
	case token.LSS:
		return boolean(x < y).s, nil
	case token.LEQ:
		return boolean(x <= y).s, nil
	case token.GTR:
		return boolean(x > y).s, nil
	case token.GEQ:
		return boolean(x >= y).s, nil
	case token.LAND:
		return boolean(x != 0 && y != 0).s, nil
	case token.LOR:
		return boolean(x != 0 || y != 0).s, nil
	}
	return 0, errors.Errorf("binary operator %s not supported", op)
}

// indices returns the indices of a subscript: a scalar index or the elements of a multi-index.
func (itp *interpreter) indices(sc *scope.RWScope[ir.VarID, *cell], index ir.Expr) ([]int64, error) {
	exprs := []ir.Expr{index}
	if index.Kind() == ir.ConstructNode {
		exprs = index.Children()
	}
	is := make([]int64, len(exprs))
	for i, x := range exprs {
		var err error
		if is[i], err = itp.int(sc, x); err != nil {
			return nil, err
		}
	}
	return is, nil
}

func (itp *interpreter) subscript(sc *scope.RWScope[ir.VarID, *cell], e ir.Expr) (val, error) {
	x, err := itp.eval(sc, e.X())
	if err != nil {
		return void, err
	}
	if x.kind != viewVal {
		return void, fmterr.Malformedf(e, "cannot subscript %s", e.X())
	}
	is, err := itp.indices(sc, e.Y())
	if err != nil {
		return void, err
	}
	v := x.v
	for _, i := range is {
		if v, err = v.sub(i); err != nil {
			return void, fmterr.Malformed(e, err)
		}
	}
	return val{kind: viewVal, v: v}, nil
}

func (itp *interpreter) assign(sc *scope.RWScope[ir.VarID, *cell], e ir.Expr) error {
	value, err := itp.eval(sc, e.Y())
	if err != nil {
		return err
	}
	value = value.load()
	target := e.X()
	if target.Kind() == ir.VarRefNode {
		c, ok := sc.Find(target.Var())
		if !ok {
			return fmterr.Malformedf(e, "undefined variable %s", target)
		}
		if c.v.kind == viewVal {
			return fmterr.Malformedf(e, "cannot assign a whole tensor")
		}
		next, err := update(e.Op(), c.v.s, value)
		if err != nil {
			return fmterr.Malformed(e, err)
		}
		c.v = scalar(next)
		return nil
	}
	lv, err := itp.eval(sc, target)
	if err != nil {
		return err
	}
	if lv.kind != viewVal || !lv.v.isElement() {
		return fmterr.Malformedf(e, "%s is not a tensor element", target)
	}
	data := lv.v.t.Data
	next, err := update(e.Op(), data[lv.v.offset], value)
	if err != nil {
		return fmterr.Malformed(e, err)
	}
	data[lv.v.offset] = next
	return nil
}

func update(op token.Token, old float64, value val) (float64, error) {
	if !value.isScalar() {
		return 0, errors.Errorf("cannot assign %s", value)
	}
	switch op {
	case token.ASSIGN:
		return value.s, nil
	case token.ADD_ASSIGN:
		return old + value.s, nil
	case token.SUB_ASSIGN:
		return old - value.s, nil
	case token.MUL_ASSIGN:
		return old * value.s, nil
	case token.QUO_ASSIGN:
		return old / value.s, nil
	}
	return 0, errors.Errorf("assignment operator %s not supported", op)
}

func (itp *interpreter) call(sc *scope.RWScope[ir.VarID, *cell], e ir.Expr) (val, error) {
	switch e.Intrinsic() {
	case ir.LowerBound, ir.UpperBound:
		index := e.X()
		if index.Kind() != ir.IndexRefNode {
			return void, fmterr.Malformedf(e, "bound of a non index expression")
		}
		rng, err := itp.indexRange(sc, index.Var())
		if err != nil {
			return void, fmterr.Malformed(e, err)
		}
		if e.Intrinsic() == ir.LowerBound {
			return scalar(float64(rng.Lower)), nil
		}
		return scalar(float64(rng.Upper)), nil
	}
	args := make([]float64, e.NumChildren())
	for i, arg := range e.Children() {
		var err error
		if args[i], err = itp.scalar(sc, arg); err != nil {
			return void, err
		}
	}
	want := map[ir.Intrinsic]int{
		ir.Exp: 1, ir.Log: 1, ir.Sqrt: 1, ir.Abs: 1,
		ir.Min: 2, ir.Max: 2, ir.FloorDiv: 2,
		ir.Select: 3,
	}
	n, ok := want[e.Intrinsic()]
	if !ok {
		return void, fmterr.Malformedf(e, "intrinsic %s not supported", e.Intrinsic())
	}
	if n != len(args) {
		return void, fmterr.Malformedf(e, "intrinsic %s called with %d arguments, want %d", e.Intrinsic(), len(args), n)
	}
	switch e.Intrinsic() {
	case ir.Exp:
		return scalar(math.Exp(args[0])), nil
	case ir.Log:
		return scalar(math.Log(args[0])), nil
	case ir.Sqrt:
		return scalar(math.Sqrt(args[0])), nil
	case ir.Abs:
		return scalar(math.Abs(args[0])), nil
	case ir.Min:
		return scalar(math.Min(args[0], args[1])), nil
	case ir.Max:
		return scalar(math.Max(args[0], args[1])), nil
	case ir.FloorDiv:
		return scalar(math.Floor(args[0] / args[1])), nil
	}
	if args[0] != 0 {
		return scalar(args[1]), nil
	}
	return scalar(args[2]), nil
}
