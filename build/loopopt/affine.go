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

package loopopt

import (
	"fmt"
	"go/token"

	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/ir/irkind"
)

// affineEnv converts index expressions into isl affine expressions.
type affineEnv struct {
	job *Job
	// iters maps the loop indices enclosing a statement to isl set dimensions.
	iters map[ir.VarID]string
}

// integerParam returns true if e references an integer function parameter.
func integerParam(e ir.Expr) bool {
	if e.Kind() != ir.VarRefNode {
		return false
	}
	decl := e.Decl()
	if decl.Role != ir.Param {
		return false
	}
	return irkind.IsInteger(decl.Type.Kind())
}

// affine returns an expression in the isl syntax, or false if e is not an
// affine function of the iterators and of the integer parameters.
func (env affineEnv) affine(e ir.Expr) (string, bool) {
	switch e.Kind() {
	case ir.LiteralNode:
		v, ok := e.Int()
		if !ok {
			return "", false
		}
		if v < 0 {
			return fmt.Sprintf("(%d)", v), true
		}
		return fmt.Sprint(v), true
	case ir.IndexRefNode:
		name, ok := env.iters[e.Var()]
		return name, ok
	case ir.VarRefNode:
		if !integerParam(e) {
			return "", false
		}
		return env.job.param(e.Decl()), true
	case ir.ConvertNode:
		if !irkind.IsInteger(e.TargetType().Kind()) {
			return "", false
		}
		return env.affine(e.X())
	case ir.UnaryNode:
		if e.Op() != token.SUB {
			return "", false
		}
		x, ok := env.affine(e.X())
		if !ok {
			return "", false
		}
		return "(-" + x + ")", true
	case ir.BinaryNode:
		return env.binary(e)
	case ir.CallNode:
		if e.Intrinsic() != ir.FloorDiv || e.NumChildren() != 2 {
			return "", false
		}
		d, ok := e.Child(1).Int()
		if !ok || d <= 0 {
			return "", false
		}
		x, ok := env.affine(e.Child(0))
		if !ok {
			return "", false
		}
		return fmt.Sprintf("floor((%s)/%d)", x, d), true
	}
	return "", false
}

func (env affineEnv) binary(e ir.Expr) (string, bool) {
	switch e.Op() {
	case token.ADD, token.SUB:
		x, xOk := env.affine(e.X())
		y, yOk := env.affine(e.Y())
		if !xOk || !yOk {
			return "", false
		}
		return fmt.Sprintf("(%s %s %s)", x, e.Op(), y), true
	case token.MUL:
		// One of the operands has to be a constant.
		cst, expr := e.X(), e.Y()
		if _, ok := cst.Int(); !ok {
			cst, expr = expr, cst
		}
		c, ok := cst.Int()
		if !ok {
			return "", false
		}
		x, ok := env.affine(expr)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("(%d*%s)", c, x), true
	}
	return "", false
}
