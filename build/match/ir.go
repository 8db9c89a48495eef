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

package match

import (
	"go/token"

	"github.com/gx-org/tlc/build/ir"
)

// Expr is a matcher of IR expressions.
type Expr = Matcher[ir.Expr]

func ofKind(kinds ...ir.NodeKind) func(ir.Expr) bool {
	return func(e ir.Expr) bool {
		knd := e.Kind()
		for _, k := range kinds {
			if k == knd {
				return true
			}
		}
		return false
	}
}

func child(i int) func(ir.Expr) (ir.Expr, bool) {
	return func(e ir.Expr) (ir.Expr, bool) {
		if e.NumChildren() <= i {
			return ir.Expr{}, false
		}
		return e.Child(i), true
	}
}

func children(e ir.Expr) ([]ir.Expr, bool) {
	return e.Children(), true
}

func varOf(e ir.Expr) (ir.VarID, bool) {
	return e.Var(), true
}

func opOf(e ir.Expr) (token.Token, bool) {
	return e.Op(), true
}

// Kind matches expressions of one of the given kinds.
func Kind(kinds ...ir.NodeKind) Expr {
	return If(ofKind(kinds...))
}

// IndexRef matches a reference to an index.
func IndexRef(id Matcher[ir.VarID]) Expr {
	return And(Kind(ir.IndexRefNode), Project(varOf, id))
}

// VarRef matches a reference to a parameter or a local variable.
func VarRef(id Matcher[ir.VarID]) Expr {
	return And(Kind(ir.VarRefNode), Project(varOf, id))
}

// Role matches references to variables with a given role.
func Role(role ir.Role) Expr {
	return And(Kind(ir.VarRefNode, ir.IndexRefNode), If(func(e ir.Expr) bool {
		return e.Decl().Role == role
	}))
}

// Binary matches binary operations.
func Binary(op Matcher[token.Token], x, y Expr) Expr {
	return And(Kind(ir.BinaryNode), Project(opOf, op), Project(child(0), x), Project(child(1), y))
}

// Mul matches x*y.
func Mul(x, y Expr) Expr {
	return Binary(Lit(token.MUL), x, y)
}

// Assign matches assignments (=, +=, *=, ...) of a value to a target.
func Assign(op Matcher[token.Token], target, value Expr) Expr {
	return And(Kind(ir.BinaryNode), If(func(e ir.Expr) bool {
		return ir.IsAssign(e.Op())
	}), Project(opOf, op), Project(child(0), target), Project(child(1), value))
}

// Subscript matches x[index].
func Subscript(x, index Expr) Expr {
	return And(Kind(ir.SubscriptNode), Project(child(0), x), Project(child(1), index))
}

// MultiIndex matches a tuple construct of indices.
func MultiIndex(elems Matcher[[]ir.Expr]) Expr {
	return And(Kind(ir.ConstructNode), If(func(e ir.Expr) bool {
		_, ok := e.TargetType().(*ir.TupleType)
		return ok
	}), Project(children, elems))
}

// Sum matches a sum over an index.
func Sum(index Matcher[ir.VarID], body Expr) Expr {
	return And(Kind(ir.SumNode), Project(varOf, index), Project(child(0), body))
}

// Loop matches For and ForAll loops.
func Loop(index Matcher[ir.VarID], lower, upper, body Expr) Expr {
	return And(Kind(ir.ForNode, ir.ForAllNode),
		Project(varOf, index),
		Project(child(0), lower),
		Project(child(1), upper),
		Project(child(2), body))
}

// Delta matches a Kronecker delta.
func Delta(i, j Expr) Expr {
	return And(Kind(ir.DeltaNode), Project(child(0), i), Project(child(1), j))
}

// Call matches a call to an intrinsic with the given arguments.
func Call(fn ir.Intrinsic, args ...Expr) Expr {
	return And(Kind(ir.CallNode), If(func(e ir.Expr) bool {
		return e.Intrinsic() == fn
	}), Project(children, Seq(args...)))
}

// LocalDef matches the definition of a local variable.
func LocalDef(id Matcher[ir.VarID], init Expr) Expr {
	return And(Kind(ir.LocalDefNode), Project(varOf, id), Project(child(0), init))
}

// Children matches the children of an expression.
func Children(m Matcher[[]ir.Expr]) Expr {
	return Project(children, m)
}

// IntLit matches an integer literal of a given value, whatever its type.
func IntLit(v int64) Expr {
	return If(func(e ir.Expr) bool {
		got, ok := e.Int()
		return ok && got == v
	})
}
