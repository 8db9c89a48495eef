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

package ir_test

import (
	"slices"
	"testing"

	"github.com/gx-org/tlc/build/ir"
)

func TestSubstitute(t *testing.T) {
	f := newFixture()
	a := f.a
	i, j := a.Ref(f.i.ID), a.Ref(f.j.ID)
	bi := a.Subscript(a.Ref(f.B.ID), i)
	bj := a.Subscript(a.Ref(f.B.ID), j)
	expr := a.Add(a.Mul(bi, bi), a.Call(ir.Exp, bi))
	got := ir.Substitute(expr, bi, bj)
	want := a.Add(a.Mul(bj, bj), a.Call(ir.Exp, bj))
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if ir.Contains(got, bi) {
		t.Errorf("%s still contains %s", got, bi)
	}
	if got := ir.Substitute(expr, a.Ref(f.acc.ID), bj); got != expr {
		t.Errorf("substituting an absent node changed %s into %s", expr, got)
	}
}

func TestSubstituteVar(t *testing.T) {
	f := newFixture()
	a := f.a
	i, j := a.Ref(f.i.ID), a.Ref(f.j.ID)
	sum := a.Sum(f.i.ID, a.Mul(a.Subscript(a.Ref(f.B.ID), i), a.Subscript(a.Ref(f.C.ID), j)))
	got := ir.SubstituteVar(sum, f.j.ID, i)
	want := a.Sum(f.i.ID, a.Mul(a.Subscript(a.Ref(f.B.ID), i), a.Subscript(a.Ref(f.C.ID), i)))
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if n := ir.References(got, f.i.ID); n != 2 {
		t.Errorf("got %d references to i, want 2", n)
	}
	if n := ir.References(got, f.j.ID); n != 0 {
		t.Errorf("got %d references to j, want 0", n)
	}
}

func TestFreeIndices(t *testing.T) {
	f := newFixture()
	a := f.a
	i, j, k := a.Ref(f.i.ID), a.Ref(f.j.ID), a.Ref(f.k.ID)
	aij := a.Subscript(a.Ref(f.A.ID), a.MultiIndex(i, j))
	tests := []struct {
		expr ir.Expr
		want []ir.VarID
	}{
		{expr: aij, want: []ir.VarID{f.i.ID, f.j.ID}},
		{expr: a.Sum(f.j.ID, aij), want: []ir.VarID{f.i.ID}},
		{expr: a.Mul(k, a.Sum(f.j.ID, aij)), want: []ir.VarID{f.k.ID, f.i.ID}},
		{expr: a.For(f.j.ID, a.Index(0), j, aij), want: []ir.VarID{f.j.ID, f.i.ID}},
		{expr: a.For(f.j.ID, a.Call(ir.LowerBound, j), a.Call(ir.UpperBound, j), aij), want: []ir.VarID{f.i.ID}},
		{expr: a.ForAll(f.i.ID, a.Index(0), a.Index(10), a.Sum(f.j.ID, aij)), want: nil},
	}
	for _, test := range tests {
		got := ir.OrderedFreeIndices(test.expr)
		if !slices.Equal(got, test.want) {
			t.Errorf("%s: got free indices %v, want %v", test.expr, got, test.want)
		}
		free := ir.FreeIndices(test.expr)
		if !free.EqualSlice(test.want) {
			t.Errorf("%s: got free index set %v, want %v", test.expr, free, test.want)
		}
	}
}

func TestWalkOrder(t *testing.T) {
	f := newFixture()
	a := f.a
	i := a.Ref(f.i.ID)
	bi := a.Subscript(a.Ref(f.B.ID), i)
	expr := a.Add(bi, a.Index(1))
	var got []ir.NodeKind
	for e := range ir.Walk(expr) {
		got = append(got, e.Kind())
	}
	want := []ir.NodeKind{ir.BinaryNode, ir.SubscriptNode, ir.VarRefNode, ir.IndexRefNode, ir.LiteralNode}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	indices := ir.IndexSet(a.Sum(f.j.ID, bi)).Slice()
	if !slices.Equal(indices, []ir.VarID{f.i.ID, f.j.ID}) {
		t.Errorf("got indices %v, want [i j]", indices)
	}
}
