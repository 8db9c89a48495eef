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
	"github.com/hashicorp/go-set/v3"
)

// EmitImplicitLoops wraps every statement using indices not bound by an
// enclosing loop in a nest of loops over these indices.
//
// The statements of a compound are wrapped separately. Loops are nested in the
// order of the first occurrence of their index in the statement. A loop is a
// ForAll if its iterations write to distinct locations, that is if every
// variable written by the statement is only accessed through a subscript by the
// loop index. Otherwise, the loop is a For.
// The bounds of the loops are placeholders filled by DeduceLoopBounds.
func EmitImplicitLoops(a *ir.Arena, root ir.Expr) (ir.Expr, error) {
	return emitLoops(a, root, set.New[ir.VarID](0)), nil
}

func emitLoops(a *ir.Arena, s ir.Expr, bound *set.Set[ir.VarID]) ir.Expr {
	if s.Kind() == ir.CompoundNode {
		children := s.Children()
		for i, child := range children {
			children[i] = emitLoops(a, child, bound)
		}
		return s.WithChildren(children)
	}
	if !ir.IsStatement(s.Type()) {
		return s
	}
	var free []ir.VarID
	for _, id := range ir.OrderedFreeIndices(s) {
		if !bound.Contains(id) {
			free = append(free, id)
		}
	}
	if len(free) > 0 {
		wrapped := s
		for i := len(free) - 1; i >= 0; i-- {
			kind := ir.ForNode
			if independentIterations(s, free[i]) {
				kind = ir.ForAllNode
			}
			wrapped = placeholderLoop(a, kind, free[i], wrapped)
		}
		return wrapped
	}
	switch s.Kind() {
	case ir.ForNode, ir.ForAllNode:
		inner := bound.Copy()
		inner.Insert(s.Var())
		return a.Loop(s.Kind(), s.Var(), s.Lower(), s.Upper(), emitLoops(a, s.Body(), inner))
	case ir.IfNode:
		children := s.Children()
		for i := 1; i < len(children); i++ {
			children[i] = emitLoops(a, children[i], bound)
		}
		return s.WithChildren(children)
	case ir.SpawnNode:
		return a.Spawn(emitLoops(a, s.Body(), bound))
	}
	return s
}

// accessRoot returns the variable at the root of a chain of subscripts.
func accessRoot(e ir.Expr) (ir.VarID, bool) {
	for e.Kind() == ir.SubscriptNode {
		e = e.X()
	}
	if e.Kind() != ir.VarRefNode {
		return ir.VarID{}, false
	}
	return e.Var(), true
}

// subscriptsIndex returns true if one of the subscripts of a chain is the index.
func subscriptsIndex(e ir.Expr, index ir.VarID) bool {
	for ; e.Kind() == ir.SubscriptNode; e = e.X() {
		if isIndexRef(e.Y(), index) {
			return true
		}
	}
	return false
}

// independentIterations returns true if the iterations of a loop over index
// with s as its body write to distinct locations and only read the locations
// they write.
func independentIterations(s ir.Expr, index ir.VarID) bool {
	private := set.New[ir.VarID](0)
	match.ForEach(s, match.Kind(ir.LocalDefNode), func(def ir.Expr) {
		private.Insert(def.Var())
	})
	written := make(map[ir.VarID]ir.Expr)
	independent := true
	match.ForEach(s, match.Assign(match.Any[token.Token](), match.Any[ir.Expr](), match.Any[ir.Expr]()), func(assign ir.Expr) {
		target := assign.X()
		id, ok := accessRoot(target)
		if !ok {
			independent = false
			return
		}
		if private.Contains(id) {
			return
		}
		if prev, ok := written[id]; ok && prev != target {
			independent = false
		}
		written[id] = target
	})
	if !independent || len(written) == 0 {
		return false
	}
	for id, target := range written {
		if !subscriptsIndex(target, index) {
			return false
		}
		// Every access to a written variable must be the target itself.
		accesses := match.Protect(match.And(
			match.Kind(ir.SubscriptNode, ir.VarRefNode),
			match.Project(accessRoot, match.Lit(id)),
		))
		match.ForEach(s, accesses, func(access ir.Expr) {
			if access != target {
				independent = false
			}
		})
	}
	return independent
}
