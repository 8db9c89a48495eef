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

	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/match"
)

// factors returns the operands of a product, flattened, from left to right.
func factors(e ir.Expr) []ir.Expr {
	if e.Kind() != ir.BinaryNode || e.Op() != token.MUL {
		return []ir.Expr{e}
	}
	return append(factors(e.X()), factors(e.Y())...)
}

// product multiplies factors. The product of no factor is the one of typ.
func product(a *ir.Arena, typ ir.Type, fs []ir.Expr) ir.Expr {
	if len(fs) == 0 {
		return a.One(typ)
	}
	p := fs[0]
	for _, f := range fs[1:] {
		p = a.Mul(p, f)
	}
	return p
}

type deltaFold struct {
	// pos is the position of the delta in the factors of the body.
	pos int
	// other is the delta operand substituted for the summed index.
	other ir.Expr
}

// pickDelta returns the delta factor of a sum body to fold.
// A delta can be folded if one of its operands is the summed index and the
// other operand does not reference the summed index.
// When several deltas can be folded, the delta which other operand has the fewest
// occurrences in the body is chosen, and then the first one from the left.
func pickDelta(body ir.Expr, index ir.VarID) (deltaFold, bool) {
	var best deltaFold
	bestCount := -1
	fs := factors(body)
	for pos, f := range fs {
		f, ok := deltaFactor(f)
		if !ok {
			continue
		}
		var other ir.Expr
		switch {
		case isIndexRef(f.X(), index):
			other = f.Y()
		case isIndexRef(f.Y(), index):
			other = f.X()
		default:
			continue
		}
		if ir.References(other, index) > 0 {
			continue
		}
		count := occurrences(body, other)
		if bestCount < 0 || count < bestCount {
			best, bestCount = deltaFold{pos: pos, other: other}, count
		}
	}
	return best, bestCount >= 0
}

// deltaFactor returns the delta of a factor which is a delta or a converted delta.
func deltaFactor(f ir.Expr) (ir.Expr, bool) {
	if f.Kind() == ir.ConvertNode {
		f = f.X()
	}
	return f, f.Kind() == ir.DeltaNode
}

func isIndexRef(e ir.Expr, index ir.VarID) bool {
	return e.Kind() == ir.IndexRefNode && e.Var() == index
}

func occurrences(root, x ir.Expr) int {
	n := 0
	for e := range ir.Walk(root) {
		if e == x {
			n++
		}
	}
	return n
}

// FoldDeltas folds Kronecker deltas into the sums over one of their indices:
//
//	sum_k(... * delta(k, x) * ...) -> (... * ...)[k := x]
//
// Sums are visited in pre-order. The pass stops when no delta can be folded.
// Deltas which are not a factor of a sum over one of their operands are left unchanged.
func FoldDeltas(a *ir.Arena, root ir.Expr) (ir.Expr, error) {
	index := match.Var[ir.VarID]()
	var body ir.Expr
	foldable := match.Sum(index, match.And(
		match.AnyBind(&body),
		match.If(func(b ir.Expr) bool {
			_, ok := pickDelta(b, index.Value())
			return ok
		}),
	))
	type site struct {
		sum, folded ir.Expr
	}
	for {
		s, ok := match.Search(root, foldable, func(sum ir.Expr) site {
			fold, _ := pickDelta(body, index.Value())
			fs := factors(body)
			rest := append(fs[:fold.pos:fold.pos], fs[fold.pos+1:]...)
			return site{
				sum:    sum,
				folded: ir.SubstituteVar(product(a, sum.Type(), rest), index.Value(), fold.other),
			}
		})
		if !ok {
			return root, nil
		}
		root = ir.Substitute(root, s.sum, s.folded)
	}
}

// LowerDeltas replaces the deltas left by FoldDeltas by a selection:
//
//	delta(x, y)    -> select(x == y, 1, 0)
//	T(delta(x, y)) -> select(x == y, T(1), T(0))
func LowerDeltas(a *ir.Arena, root ir.Expr) (ir.Expr, error) {
	selectDelta := func(delta ir.Expr, typ ir.Type) ir.Expr {
		return a.Call(ir.Select, a.Binary(token.EQL, delta.X(), delta.Y()), a.One(typ), a.Zero(typ))
	}
	root = ir.Transform(root, func(e ir.Expr) ir.Expr {
		if e.Kind() != ir.ConvertNode || e.X().Kind() != ir.DeltaNode {
			return e
		}
		return selectDelta(e.X(), e.TargetType())
	})
	return ir.Transform(root, func(e ir.Expr) ir.Expr {
		if e.Kind() != ir.DeltaNode {
			return e
		}
		return selectDelta(e, e.Type())
	}), nil
}
