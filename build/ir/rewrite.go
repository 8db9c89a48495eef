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

package ir

import (
	"cmp"
	"iter"

	"github.com/hashicorp/go-set/v3"
)

// Walk returns an iterator over all the nodes of a tree in pre-order.
// Shared subtrees are visited once per occurrence.
func Walk(root Expr) iter.Seq[Expr] {
	return func(yield func(Expr) bool) {
		walk(root, yield)
	}
}

func walk(e Expr, yield func(Expr) bool) bool {
	if e.IsNil() {
		return true
	}
	if !yield(e) {
		return false
	}
	for _, child := range e.node().children {
		if !walk(child, yield) {
			return false
		}
	}
	return true
}

// Transform rebuilds a tree bottom-up: f is called on every node after its
// children have been transformed. Structurally equal subtrees are
// transformed once.
func Transform(root Expr, f func(Expr) Expr) Expr {
	memo := make(map[Expr]Expr)
	var rec func(Expr) Expr
	rec = func(e Expr) Expr {
		if e.IsNil() {
			return e
		}
		if r, ok := memo[e]; ok {
			return r
		}
		children := e.node().children
		changed := false
		newChildren := make([]Expr, len(children))
		for i, child := range children {
			newChildren[i] = rec(child)
			changed = changed || newChildren[i] != child
		}
		r := e
		if changed {
			r = e.WithChildren(newChildren)
		}
		r = f(r)
		memo[e] = r
		return r
	}
	return rec(root)
}

// Substitute replaces every occurrence of from in root by to,
// reassembling the ancestors with WithChildren.
func Substitute(root, from, to Expr) Expr {
	return Transform(root, func(e Expr) Expr {
		if e == from {
			return to
		}
		return e
	})
}

// SubstituteVar replaces every reference to a variable by an expression.
// Nodes binding the variable (sums, loops and local definitions) keep their variable.
func SubstituteVar(root Expr, id VarID, to Expr) Expr {
	return Transform(root, func(e Expr) Expr {
		switch e.Kind() {
		case VarRefNode, IndexRefNode:
			if e.Var() == id {
				return to
			}
		}
		return e
	})
}

// References returns the number of references to a variable in a tree.
func References(root Expr, id VarID) int {
	n := 0
	for e := range Walk(root) {
		switch e.Kind() {
		case VarRefNode, IndexRefNode:
			if e.Var() == id {
				n++
			}
		}
	}
	return n
}

// Contains returns true if the tree contains a node.
func Contains(root, x Expr) bool {
	for e := range Walk(root) {
		if e == x {
			return true
		}
	}
	return false
}

// CompareVarID orders variables by declaration slot.
func CompareVarID(x, y VarID) int {
	if c := cmp.Compare(x.slot, y.slot); c != 0 {
		return c
	}
	return cmp.Compare(x.gen, y.gen)
}

// BindsIndex returns true if the node binds an index over its body.
func (e Expr) BindsIndex() bool {
	switch e.Kind() {
	case SumNode, ForNode, ForAllNode:
		return true
	}
	return false
}

// FreeIndices returns the set of indices referenced in a tree
// which are not bound by a sum or a loop of the tree.
func FreeIndices(root Expr) *set.Set[VarID] {
	free := set.New[VarID](0)
	for _, id := range OrderedFreeIndices(root) {
		free.Insert(id)
	}
	return free
}

// OrderedFreeIndices returns the free indices of a tree
// in the order of their first occurrence in pre-order.
// The lower_bound and upper_bound placeholders do not use their index.
func OrderedFreeIndices(root Expr) []VarID {
	var ordered []VarID
	seen := set.New[VarID](0)
	bound := make(map[VarID]int)
	var rec func(Expr)
	rec = func(e Expr) {
		if e.IsNil() {
			return
		}
		n := e.node()
		switch n.kind {
		case IndexRefNode:
			if bound[n.vr] == 0 && seen.Insert(n.vr) {
				ordered = append(ordered, n.vr)
			}
			return
		case CallNode:
			if fn := Intrinsic(n.name); fn == LowerBound || fn == UpperBound {
				return
			}
		case SumNode:
			bound[n.vr]++
			rec(n.children[0])
			bound[n.vr]--
			return
		case ForNode, ForAllNode:
			rec(n.children[0])
			rec(n.children[1])
			bound[n.vr]++
			rec(n.children[2])
			bound[n.vr]--
			return
		}
		for _, child := range n.children {
			rec(child)
		}
	}
	rec(root)
	return ordered
}

// IndexSet returns the set of indices declared in a tree, that is,
// referenced or bound by a sum or a loop, sorted by declaration.
func IndexSet(root Expr) *set.TreeSet[VarID] {
	indices := set.NewTreeSet[VarID](CompareVarID)
	for e := range Walk(root) {
		switch {
		case e.Kind() == IndexRefNode:
			indices.Insert(e.Var())
		case e.BindsIndex():
			indices.Insert(e.Var())
		}
	}
	return indices
}
