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

package match_test

import (
	"go/token"
	"testing"

	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/ir/irhelper"
	"github.com/gx-org/tlc/build/match"
)

func TestSameIndexTwice(t *testing.T) {
	a := ir.NewArena()
	i, j := a.NewIndex("i"), a.NewIndex("j")
	A := irhelper.StaticTensor(a, "A", ir.In, ir.Float32Type(), 10)
	B := irhelper.StaticTensor(a, "B", ir.In, ir.Float32Type(), 10)
	ai := a.Subscript(a.Ref(A.ID), a.Ref(i.ID))
	bi := a.Subscript(a.Ref(B.ID), a.Ref(i.ID))
	bj := a.Subscript(a.Ref(B.ID), a.Ref(j.ID))

	x := match.Var[ir.VarID]()
	m := match.Mul(
		match.Subscript(match.Any[ir.Expr](), match.IndexRef(x)),
		match.Subscript(match.Any[ir.Expr](), match.IndexRef(x)),
	)
	if !match.Matches(m, a.Mul(ai, bi)) {
		t.Errorf("%s not matched", a.Mul(ai, bi))
	}
	if match.Matches(m, a.Mul(ai, bj)) {
		t.Errorf("%s matched", a.Mul(ai, bj))
	}
	if match.Matches(m, a.Add(ai, bi)) {
		t.Errorf("%s matched", a.Add(ai, bi))
	}
}

func TestSearchSumWithDelta(t *testing.T) {
	a := ir.NewArena()
	i, j := a.NewIndex("i"), a.NewIndex("j")
	A := irhelper.StaticTensor(a, "A", ir.In, ir.Float32Type(), 10)
	aj := a.Subscript(a.Ref(A.ID), a.Ref(j.ID))
	sum := a.Sum(j.ID, a.Mul(a.Delta(a.Ref(i.ID), a.Ref(j.ID)), aj))
	root := a.Assign(a.Subscript(a.Ref(A.ID), a.Ref(i.ID)), a.Add(a.Float(1), sum))

	k := match.Var[ir.VarID]()
	var other, body ir.Expr
	m := match.Sum(k, match.Mul(
		match.Delta(match.AnyBind(&other), match.IndexRef(k)),
		match.AnyBind(&body),
	))
	type site struct {
		sum   ir.Expr
		index ir.VarID
	}
	got, ok := match.Search(root, m, func(e ir.Expr) site {
		return site{sum: e, index: k.Value()}
	})
	if !ok {
		t.Fatalf("no sum with a delta found in %s", root)
	}
	if got.sum != sum || got.index != j.ID {
		t.Errorf("got sum %s over %v, want %s over %v", got.sum, got.index, sum, j.ID)
	}
	if other != a.Ref(i.ID) || body != aj {
		t.Errorf("got bindings %s and %s, want i and %s", other, body, aj)
	}
	if k.Bound() {
		t.Errorf("binder still bound after the search")
	}
}

func TestIRMatchers(t *testing.T) {
	a := ir.NewArena()
	i := a.NewIndex("i")
	acc := a.NewLocal("acc", ir.Float32Type())
	iRef := a.Ref(i.ID)
	tests := []struct {
		name string
		m    match.Expr
		e    ir.Expr
		want bool
	}{
		{
			name: "upper bound placeholder",
			m:    match.Call(ir.UpperBound, match.IndexRef(match.Lit(i.ID))),
			e:    a.Call(ir.UpperBound, iRef),
			want: true,
		},
		{
			name: "lower bound is not upper bound",
			m:    match.Call(ir.UpperBound, match.Any[ir.Expr]()),
			e:    a.Call(ir.LowerBound, iRef),
		},
		{
			name: "add assign",
			m:    match.Assign(match.Lit(token.ADD_ASSIGN), match.VarRef(match.Lit(acc.ID)), match.Any[ir.Expr]()),
			e:    a.AddAssign(a.Ref(acc.ID), a.Float(1)),
			want: true,
		},
		{
			name: "addition is not an assignment",
			m:    match.Assign(match.Any[token.Token](), match.Any[ir.Expr](), match.Any[ir.Expr]()),
			e:    a.Add(a.Ref(acc.ID), a.Float(1)),
		},
		{
			name: "loop from zero",
			m:    match.Loop(match.Lit(i.ID), match.IntLit(0), match.Any[ir.Expr](), match.Any[ir.Expr]()),
			e:    a.For(i.ID, a.Index(0), a.Index(4), a.Compound()),
			want: true,
		},
		{
			name: "multi-index of arity 2",
			m:    match.MultiIndex(match.Seq(match.Any[ir.Expr](), match.Any[ir.Expr]())),
			e:    a.MultiIndex(iRef, iRef),
			want: true,
		},
		{
			name: "index role",
			m:    match.Role(ir.Index),
			e:    iRef,
			want: true,
		},
		{
			name: "local role",
			m:    match.Role(ir.Index),
			e:    a.Ref(acc.ID),
		},
		{
			name: "local definition",
			m:    match.LocalDef(match.Lit(acc.ID), match.IntLit(0)),
			e:    a.LocalDef(acc.ID, a.Zero(ir.Int64Type())),
			want: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := match.Matches(test.m, test.e); got != test.want {
				t.Errorf("match %s: got %v, want %v", test.e, got, test.want)
			}
		})
	}
}

func TestForEachCountsEveryNode(t *testing.T) {
	a := ir.NewArena()
	i := a.NewIndex("i")
	A := irhelper.StaticTensor(a, "A", ir.In, ir.Float32Type(), 10)
	ai := a.Subscript(a.Ref(A.ID), a.Ref(i.ID))
	root := a.Add(a.Mul(ai, ai), a.Call(ir.Exp, ai))
	want := 0
	for range ir.Walk(root) {
		want++
	}
	if got := match.ForEach(root, match.Any[ir.Expr](), nil); got != want {
		t.Errorf("ForEach visited %d nodes, want %d", got, want)
	}
	if got := match.ForEach(root, match.Kind(ir.SubscriptNode), nil); got != 3 {
		t.Errorf("got %d subscripts, want 3", got)
	}
}
