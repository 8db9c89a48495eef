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
	"go/token"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/ir/annotations"
	"github.com/gx-org/tlc/build/ir/irhelper"
	"github.com/gx-org/tlc/build/ir/irkind"
)

type fixture struct {
	a       *ir.Arena
	i, j, k *ir.VarDecl
	A, B, C *ir.VarDecl
	acc     *ir.VarDecl
}

func newFixture() *fixture {
	a := ir.NewArena()
	return &fixture{
		a:   a,
		i:   a.NewIndex("i"),
		j:   a.NewIndex("j"),
		k:   a.NewAbstractIndex("k"),
		A:   irhelper.StaticTensor(a, "A", ir.In, ir.Float32Type(), 10, 20),
		B:   irhelper.StaticTensor(a, "B", ir.In, ir.Float32Type(), 10),
		C:   irhelper.StaticTensor(a, "C", ir.Out, ir.Float32Type(), 10),
		acc: a.NewLocal("acc", ir.Float32Type()),
	}
}

// allKinds returns an expression containing every kind of node.
func (f *fixture) allKinds() ir.Expr {
	a := f.a
	i, j, k := a.Ref(f.i.ID), a.Ref(f.j.ID), a.Ref(f.k.ID)
	aij := a.Subscript(a.Ref(f.A.ID), a.MultiIndex(i, j))
	sum := a.Sum(f.j.ID, a.Mul(a.Delta(i, j), aij))
	cond := a.Binary(token.LSS, i, a.Index(5))
	return a.Compound(
		a.LocalDef(f.acc.ID, a.Zero(ir.Float32Type())),
		a.ForAll(f.i.ID, a.Index(0), a.Index(10),
			a.For(f.j.ID, a.Call(ir.LowerBound, j), a.Call(ir.UpperBound, j),
				a.If(cond,
					a.AddAssign(a.Ref(f.acc.ID), a.Call(ir.Exp, a.Unary(token.SUB, sum))),
					a.Assign(a.Subscript(a.Ref(f.C.ID), i), a.Convert(ir.Float32Type(), k)),
				),
			),
		),
		a.Macro("barrier"),
		a.Spawn(a.Construct(&ir.StructType{Name: "pair", Fields: []ir.Field{
			{Name: "x", Type: ir.IndexType()},
			{Name: "y", Type: ir.IndexType()},
		}}, i, j)),
	)
}

func TestRoundTrip(t *testing.T) {
	f := newFixture()
	root := f.allKinds()
	kinds := make(map[ir.NodeKind]bool)
	for e := range ir.Walk(root) {
		kinds[e.Kind()] = true
		if got := e.WithChildren(e.Children()); got != e {
			t.Errorf("%s: WithChildren(Children()) = %s, want the node itself", e.ShortString(), got)
		}
	}
	for _, knd := range ir.AllNodeKinds() {
		if !kinds[knd] {
			t.Errorf("node kind %s not covered by the test", knd)
		}
	}
}

func TestInterning(t *testing.T) {
	f := newFixture()
	a := f.a
	if f.allKinds() != f.allKinds() {
		t.Errorf("structurally equal expressions have different handles")
	}
	n := a.NumNodes()
	f.allKinds()
	if got := a.NumNodes(); got != n {
		t.Errorf("building the same expression twice added %d nodes", got-n)
	}
	// Sums are only equal if they bind the same index.
	other := a.NewIndex("j")
	bj := a.Subscript(a.Ref(f.B.ID), a.Ref(f.j.ID))
	if a.Sum(f.j.ID, bj) == a.Sum(other.ID, bj) {
		t.Errorf("sums over different indices with the same name are equal")
	}
	// Annotations do not change the identity of a node.
	key := annotations.NewNamedKey("test")
	if err := annotations.Set(bj, key, 42); err != nil {
		t.Fatal(err)
	}
	if got := a.Subscript(a.Ref(f.B.ID), a.Ref(f.j.ID)); got != bj {
		t.Errorf("annotated node is not equal to a structurally equal node")
	}
	if got := annotations.Get[int](a.Subscript(a.Ref(f.B.ID), a.Ref(f.j.ID)), key); got != 42 {
		t.Errorf("got annotation %d, want 42", got)
	}
	// Literals of different types are different.
	if a.Index(0) == a.Int(0) {
		t.Errorf("index and int64 literals are equal")
	}
	if a.Float(0) != a.Zero(ir.Float64Type()) {
		t.Errorf("float zero literals are different")
	}
}

func TestVarGenerations(t *testing.T) {
	a := ir.NewArena()
	x := a.NewLocal("x", ir.Float32Type())
	id := x.ID
	if err := a.Release(id); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Var(id); err == nil {
		t.Errorf("stale identifier %s did not return an error", id)
	}
	if err := a.Release(id); err == nil {
		t.Errorf("releasing %s twice did not return an error", id)
	}
	y := a.NewLocal("x", ir.Float32Type())
	if y.ID == id {
		t.Errorf("new declaration reuses the stale identifier %s", id)
	}
	got, err := a.Var(y.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != y {
		t.Errorf("got declaration %s, want %s", got.ShortString(), y.ShortString())
	}
	if _, err := a.Var(ir.VarID{}); err == nil {
		t.Errorf("zero identifier did not return an error")
	}
}

func TestTypes(t *testing.T) {
	f := newFixture()
	a := f.a
	i, j := a.Ref(f.i.ID), a.Ref(f.j.ID)
	bi := a.Subscript(a.Ref(f.B.ID), i)
	tests := []struct {
		expr ir.Expr
		want string
	}{
		{expr: a.Ref(f.A.ID), want: "[10,20]float32"},
		{expr: a.Subscript(a.Ref(f.A.ID), i), want: "[20]float32"},
		{expr: a.Subscript(a.Ref(f.A.ID), a.MultiIndex(i, j)), want: "float32"},
		{expr: irhelper.Subscripts(a, a.Ref(f.A.ID), i, j), want: "float32"},
		{expr: a.Mul(a.Delta(i, j), bi), want: "float32"},
		{expr: a.Sum(f.i.ID, bi), want: "float32"},
		{expr: a.Binary(token.LSS, i, j), want: "bool"},
		{expr: a.Assign(a.Subscript(a.Ref(f.C.ID), i), bi), want: "void"},
		{expr: a.Call(ir.UpperBound, i), want: "index"},
		{expr: a.MultiIndex(i, j), want: "(index, index)"},
		{expr: a.Compound(), want: "void"},
		{expr: a.Subscript(a.Ref(f.acc.ID), i), want: "invalid"},
	}
	for _, test := range tests {
		if got := test.expr.Type().String(); got != test.want {
			t.Errorf("%s: got type %s, want %s", test.expr, got, test.want)
		}
	}
}

func TestTensorShape(t *testing.T) {
	a := ir.NewArena()
	n := a.NewParam("N", ir.IndexType(), ir.In)
	static := ir.Tensor(ir.Float32Type(), ir.StaticAxis(2), ir.StaticAxis(3))
	got := static.Shape()
	if got.DType != dtype.Float32 {
		t.Errorf("got data type %v, want %v", got.DType, dtype.Float32)
	}
	if diff := cmp.Diff([]int{2, 3}, got.AxisLengths); diff != "" {
		t.Errorf("unexpected axis lengths (-want +got):\n%s", diff)
	}
	symbolic := ir.Tensor(ir.Float32Type(), ir.StaticAxis(2), ir.ParamAxis(n))
	if got := symbolic.Shape(); got != nil {
		t.Errorf("symbolic tensor has static shape %v", got)
	}
	if symbolic.Equal(static) {
		t.Errorf("%s is equal to %s", symbolic, static)
	}
	if !symbolic.Equal(ir.Tensor(ir.Float32Type(), ir.StaticAxis(2), ir.ParamAxis(n))) {
		t.Errorf("%s is not equal to itself", symbolic)
	}
	if got := symbolic.Sub(1).String(); got != "[N]float32" {
		t.Errorf("got %s, want [N]float32", got)
	}
	if got := ir.Scalar(irkind.Complex64).Kind(); got != irkind.Complex64 {
		t.Errorf("got kind %s, want complex64", got)
	}
	if got := ir.Scalar(irkind.Tensor).Kind(); got != irkind.Invalid {
		t.Errorf("got kind %s, want invalid", got)
	}
}

func TestString(t *testing.T) {
	f := newFixture()
	a := f.a
	i, j := a.Ref(f.i.ID), a.Ref(f.j.ID)
	tests := []struct {
		expr ir.Expr
		want string
	}{
		{
			expr: a.Sum(f.j.ID, a.Mul(a.Delta(i, j), a.Subscript(a.Ref(f.B.ID), j))),
			want: "sum_j((delta(i, j) * B[j]))",
		},
		{
			expr: a.Subscript(a.Ref(f.A.ID), a.MultiIndex(i, j)),
			want: "A[(i, j)]",
		},
		{
			expr: a.For(f.i.ID, a.Index(0), a.Index(10), a.AddAssign(a.Subscript(a.Ref(f.C.ID), i), a.Float(1))),
			want: "for i in [0, 10) { C[i] += 1.0 }",
		},
		{
			expr: a.Compound(a.LocalDef(f.acc.ID, a.Zero(ir.Float32Type())), a.Ref(f.acc.ID)),
			want: "{ acc := 0.0; acc }",
		},
		{
			expr: a.If(a.Binary(token.GEQ, i, j), a.Macro("sync", i), ir.Expr{}),
			want: "if (i >= j) { @sync(i) }",
		},
	}
	for _, test := range tests {
		if got := test.expr.String(); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}

func TestWithChildrenPanicsOnArity(t *testing.T) {
	f := newFixture()
	delta := f.a.Delta(f.a.Ref(f.i.ID), f.a.Ref(f.j.ID))
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("WithChildren with a wrong number of children did not panic")
		}
	}()
	delta.WithChildren([]ir.Expr{f.a.Ref(f.i.ID)})
}

func TestFuncDecl(t *testing.T) {
	f := newFixture()
	a := f.a
	i := a.Ref(f.i.ID)
	body := a.Assign(a.Subscript(a.Ref(f.C.ID), i), a.Subscript(a.Ref(f.B.ID), i))
	fn := irhelper.Func("copy", body, f.B, f.C)
	got := fn.String()
	want := "func copy(in B [10]float32, out C [10]float32) C[i] = B[i]"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	other := fn.WithBody(a.Compound(body))
	if other.Body == fn.Body {
		t.Errorf("WithBody did not change the body")
	}
	if diff := cmp.Diff(fn.Params, other.Params, cmp.Comparer(func(x, y ir.VarID) bool { return x == y })); diff != "" {
		t.Errorf("unexpected parameters (-want +got):\n%s", diff)
	}
}
