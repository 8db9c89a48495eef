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

package lower

import (
	"go/token"

	"github.com/gx-org/tlc/base/uname"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/match"
)

// placeholderLoop returns a sequential loop over an index which bounds are
// placeholders until DeduceLoopBounds runs.
func placeholderLoop(a *ir.Arena, kind ir.NodeKind, index ir.VarID, body ir.Expr) ir.Expr {
	ref := a.Ref(index)
	return a.Loop(kind, index, a.Call(ir.LowerBound, ref), a.Call(ir.UpperBound, ref), body)
}

// LowerSums replaces sums by explicit accumulation loops, outermost sums first.
//
// A sum assigned to a target is accumulated into the target:
//
//	target = sum_k(body)  -> { target = 0; for k { target += body } }
//	target += sum_k(body) -> for k { target += body }
//
// Any other sum, or a sum which body reads the variable of the target, is
// accumulated into a new local variable:
//
//	sum_k(body) -> { acc := 0; for k { acc += body }; acc }
func LowerSums(a *ir.Arena, root ir.Expr) (ir.Expr, error) {
	names := namer(root)
	op := match.Var[token.Token]()
	var target, sum ir.Expr
	site := match.Or(
		match.Assign(
			match.And(op, match.Or(match.Lit(token.ASSIGN), match.Lit(token.ADD_ASSIGN))),
			match.AnyBind(&target),
			match.And(match.Kind(ir.SumNode), match.AnyBind(&sum)),
		),
		match.And(match.Kind(ir.SumNode), match.AnyBind(&sum)),
	)
	type rewrite struct {
		from, to ir.Expr
	}
	for {
		r, ok := match.Search(root, site, func(e ir.Expr) rewrite {
			if e.Kind() == ir.SumNode {
				return rewrite{from: e, to: accumulate(a, names, e)}
			}
			if readsTarget(target, sum.Body()) {
				return rewrite{from: sum, to: accumulate(a, names, sum)}
			}
			loop := placeholderLoop(a, ir.ForNode, sum.Var(), a.AddAssign(target, sum.Body()))
			if op.Value() == token.ADD_ASSIGN {
				return rewrite{from: e, to: loop}
			}
			return rewrite{from: e, to: a.Compound(a.Assign(target, a.Zero(sum.Type())), loop)}
		})
		if !ok {
			return root, nil
		}
		root = ir.Substitute(root, r.from, r.to)
	}
}

// readsTarget returns true if body references the variable written by target.
func readsTarget(target, body ir.Expr) bool {
	root := target
	for root.Kind() == ir.SubscriptNode {
		root = root.X()
	}
	switch root.Kind() {
	case ir.VarRefNode, ir.IndexRefNode:
		return ir.References(body, root.Var()) > 0
	}
	return true
}

func accumulate(a *ir.Arena, names *uname.Unique, sum ir.Expr) ir.Expr {
	acc := a.NewLocal(names.Name("acc"), ir.ElementType(sum.Type()))
	accRef := a.Ref(acc.ID)
	return a.Compound(
		a.LocalDef(acc.ID, a.Zero(acc.Type)),
		placeholderLoop(a, ir.ForNode, sum.Var(), a.AddAssign(accRef, sum.Body())),
		accRef,
	)
}
