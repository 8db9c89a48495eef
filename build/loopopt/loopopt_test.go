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

package loopopt_test

import (
	"errors"
	"go/token"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tlc/base/logsink"
	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/ir/irhelper"
	"github.com/gx-org/tlc/build/loopopt"
	"github.com/gx-org/tlc/build/lower"
	"github.com/gx-org/tlc/cgx/isl"
	"github.com/gx-org/tlc/interp"
)

type fixture struct {
	a       *ir.Arena
	n       *ir.VarDecl
	A, B, C *ir.VarDecl
}

func newFixture() *fixture {
	a := ir.NewArena()
	n := a.NewParam("n", ir.Int64Type(), ir.In)
	vec := ir.Tensor(ir.Float64Type(), ir.ParamAxis(n))
	return &fixture{
		a: a,
		n: n,
		A: a.NewParam("A", vec, ir.In),
		B: a.NewParam("B", vec, ir.In),
		C: a.NewParam("C", vec, ir.Out),
	}
}

func (f *fixture) size() ir.Expr {
	return f.a.Convert(ir.IndexType(), f.a.Ref(f.n.ID))
}

func (f *fixture) sub(x *ir.VarDecl, indices ...*ir.VarDecl) ir.Expr {
	return irhelper.Subscripts(f.a, f.a.Ref(x.ID), irhelper.Refs(f.a, indices...)...)
}

// checkNoLeak checks that all the isl objects created by a test are freed.
func checkNoLeak(t *testing.T) {
	before := isl.LiveObjects()
	t.Cleanup(func() {
		if after := isl.LiveObjects(); after != before {
			t.Errorf("%d isl objects leaked", after-before)
		}
	})
}

func filled(n int, v float64) *interp.Tensor {
	t := interp.NewTensor(n)
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}

func loops(body ir.Expr) []ir.Expr {
	var r []ir.Expr
	for e := range ir.Walk(body) {
		if e.Kind().IsLoop() {
			r = append(r, e)
		}
	}
	return r
}

func TestScheduleKeepsDependences(t *testing.T) {
	checkNoLeak(t)
	f := newFixture()
	a := f.a
	i, k := a.NewIndex("i"), a.NewIndex("k")
	body := a.Compound(
		a.For(i.ID, a.Index(0), f.size(), a.Assign(f.sub(f.C, i), a.Float(0))),
		a.For(k.ID, a.Index(0), f.size(), a.AddAssign(f.sub(f.C, k), a.Mul(f.sub(f.A, k), f.sub(f.B, k)))),
	)
	fn := irhelper.Func("dot", body, f.n, f.A, f.B, f.C)
	rec := &logsink.Recorder{}
	got, err := loopopt.Optimize(fn, loopopt.Config{}, rec)
	if err != nil {
		t.Fatal(err)
	}
	for _, msg := range rec.Messages() {
		if msg.Level != logsink.Debug {
			t.Errorf("unexpected message %v: %s", msg.Level, msg.Text)
		}
	}

	const n = 6
	A, B, C := interp.NewTensor(n), interp.NewTensor(n), filled(n, 1000)
	want := make([]float64, n)
	for x := range n {
		A.Data[x] = float64(x + 1)
		B.Data[x] = float64(2*x - 3)
		want[x] = A.Data[x] * B.Data[x]
	}
	if _, err := interp.Run(got, interp.Args{f.n.ID: int64(n), f.A.ID: A, f.B.ID: B, f.C.ID: C}); err != nil {
		t.Fatalf("cannot run %s: %v", got, err)
	}
	if diff := cmp.Diff(want, C.Data); diff != "" {
		t.Errorf("unexpected result of %s (-want +got):\n%s", got, diff)
	}
}

func TestTile(t *testing.T) {
	checkNoLeak(t)
	a := ir.NewArena()
	C := irhelper.StaticTensor(a, "C", ir.Out, ir.Float64Type(), 100)
	i := a.NewIndex("i")
	body := a.For(i.ID, a.Index(0), a.Index(100), a.AddAssign(a.Subscript(a.Ref(C.ID), a.Ref(i.ID)), a.Float(1)))
	fn := irhelper.Func("inc", body, C)
	got, err := loopopt.Optimize(fn, loopopt.Config{Tile: []int64{16}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	outer := got.Body
	if !outer.Kind().IsLoop() {
		t.Fatalf("got %s: want a loop over tiles", outer)
	}
	if outer.Lower() != a.Index(0) || outer.Upper() != a.Index(7) {
		t.Errorf("got tile loop bounds [%s, %s): want [0, 7)", outer.Lower(), outer.Upper())
	}
	if inner := outer.Body(); !inner.Kind().IsLoop() {
		t.Errorf("got tile body %s: want a point loop", inner)
	}
	// Every point of the domain is executed exactly once.
	tensor := interp.NewTensor(100)
	if _, err := interp.Run(got, interp.Args{C.ID: tensor}); err != nil {
		t.Fatalf("cannot run %s: %v", got, err)
	}
	if diff := cmp.Diff(filled(100, 1).Data, tensor.Data); diff != "" {
		t.Errorf("unexpected result of %s (-want +got):\n%s", got, diff)
	}
}

func TestParallelLoops(t *testing.T) {
	checkNoLeak(t)
	a := ir.NewArena()
	A := irhelper.StaticTensor(a, "A", ir.In, ir.Float64Type(), 10)
	C := irhelper.StaticTensor(a, "C", ir.Out, ir.Float64Type(), 10)
	S := irhelper.StaticTensor(a, "S", ir.Out, ir.Float64Type(), 1)
	i := a.NewIndex("i")
	tests := []struct {
		desc string
		body ir.Expr
		want ir.NodeKind
	}{
		{
			desc: "copy",
			body: a.For(i.ID, a.Index(0), a.Index(10), a.Assign(a.Subscript(a.Ref(C.ID), a.Ref(i.ID)), a.Subscript(a.Ref(A.ID), a.Ref(i.ID)))),
			want: ir.ForAllNode,
		},
		{
			desc: "reduction",
			body: a.For(i.ID, a.Index(0), a.Index(10), a.AddAssign(a.Subscript(a.Ref(S.ID), a.Index(0)), a.Subscript(a.Ref(A.ID), a.Ref(i.ID)))),
			want: ir.ForNode,
		},
		{
			desc: "shift",
			body: a.For(i.ID, a.Index(1), a.Index(10), a.Assign(
				a.Subscript(a.Ref(C.ID), a.Ref(i.ID)),
				a.Subscript(a.Ref(C.ID), a.Binary(token.SUB, a.Ref(i.ID), a.Index(1))),
			)),
			want: ir.ForNode,
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			fn := irhelper.Func(test.desc, test.body, A, C, S)
			got, err := loopopt.Optimize(fn, loopopt.Config{}, nil)
			if err != nil {
				t.Fatal(err)
			}
			ls := loops(got.Body)
			if len(ls) != 1 {
				t.Fatalf("got %d loops in %s: want 1", len(ls), got.Body)
			}
			if ls[0].Kind() != test.want {
				t.Errorf("got %s: want a %s loop", got.Body, test.want)
			}
		})
	}
}

func TestMatVec(t *testing.T) {
	checkNoLeak(t)
	a := ir.NewArena()
	const rows, cols = 4, 5
	A := irhelper.StaticTensor(a, "A", ir.In, ir.Float64Type(), rows, cols)
	D := irhelper.StaticTensor(a, "D", ir.In, ir.Float64Type(), cols)
	C := irhelper.StaticTensor(a, "C", ir.Out, ir.Float64Type(), rows)
	i, k := a.NewIndex("i"), a.NewIndex("k")
	ri, rk := a.Ref(i.ID), a.Ref(k.ID)
	body := a.Assign(
		a.Subscript(a.Ref(C.ID), ri),
		a.Sum(k.ID, a.Mul(irhelper.Subscripts(a, a.Ref(A.ID), ri, rk), a.Subscript(a.Ref(D.ID), rk))),
	)
	p, err := lower.NewPipeline(nil)
	if err != nil {
		t.Fatal(err)
	}
	lowered, err := p.Run(irhelper.Func("matvec", body, A, D, C))
	if err != nil {
		t.Fatal(err)
	}
	got, err := loopopt.Optimize(lowered, loopopt.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	aData := make([]float64, rows*cols)
	for x := range aData {
		aData[x] = float64(x%3) - 1
	}
	dData := []float64{1, 2, 3, 4, 5}
	want := make([]float64, rows)
	for r := range rows {
		for c := range cols {
			want[r] += aData[r*cols+c] * dData[c]
		}
	}
	At, err := interp.FromSlice(aData, rows, cols)
	if err != nil {
		t.Fatal(err)
	}
	Dt, err := interp.FromSlice(dData, cols)
	if err != nil {
		t.Fatal(err)
	}
	Ct := filled(rows, -1)
	if _, err := interp.Run(got, interp.Args{A.ID: At, D.ID: Dt, C.ID: Ct}); err != nil {
		t.Fatalf("cannot run %s: %v", got, err)
	}
	if diff := cmp.Diff(want, Ct.Data); diff != "" {
		t.Errorf("unexpected result of %s (-want +got):\n%s", got, diff)
	}
}

func TestUnsupported(t *testing.T) {
	checkNoLeak(t)
	f := newFixture()
	a := f.a
	i := a.NewIndex("i")
	copyLoop := func(upper ir.Expr) ir.Expr {
		return a.For(i.ID, a.Index(0), upper, a.Assign(f.sub(f.C, i), f.sub(f.A, i)))
	}
	tests := []struct {
		desc string
		body ir.Expr
		want string
	}{
		{
			desc: "macro",
			body: a.Compound(copyLoop(f.size()), a.Macro("barrier")),
			want: "macro",
		},
		{
			desc: "non affine bound",
			body: copyLoop(a.Mul(f.size(), f.size())),
			want: "not affine",
		},
		{
			desc: "sum",
			body: a.Assign(a.Subscript(f.a.Ref(f.C.ID), a.Index(0)), a.Sum(i.ID, f.sub(f.A, i))),
			want: "sum not lowered",
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			fn := irhelper.Func(test.desc, test.body, f.n, f.A, f.C)
			rec := &logsink.Recorder{}
			got, err := loopopt.Optimize(fn, loopopt.Config{}, rec)
			if err != nil {
				t.Fatal(err)
			}
			if got != fn {
				t.Errorf("got %s: want the function unchanged", got)
			}
			msgs := rec.Messages()
			if len(msgs) != 1 || msgs[0].Level != logsink.Warning || !strings.Contains(msgs[0].Text, test.want) {
				t.Errorf("got messages %v: want a warning containing %q", msgs, test.want)
			}
		})
	}
}

func TestJobStates(t *testing.T) {
	checkNoLeak(t)
	f := newFixture()
	a := f.a
	i := a.NewIndex("i")
	fn := irhelper.Func("copy", a.For(i.ID, a.Index(0), f.size(), a.Assign(f.sub(f.C, i), f.sub(f.A, i))), f.n, f.A, f.C)
	job, err := loopopt.NewJob(fn, loopopt.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := job.Schedule(); !fmterr.IsInternal(err) {
		t.Errorf("Schedule before Extract: got error %v, want an internal error", err)
	}
	if _, err := job.Lower(); !fmterr.IsInternal(err) {
		t.Errorf("Lower before Extract: got error %v, want an internal error", err)
	}
	if err := job.Extract(); err != nil {
		t.Fatal(err)
	}
	if err := job.Extract(); !fmterr.IsInternal(err) {
		t.Errorf("second Extract: got error %v, want an internal error", err)
	}
	if err := job.Tile([]int64{4}); !fmterr.IsInternal(err) {
		t.Errorf("Tile before Schedule: got error %v, want an internal error", err)
	}
	if err := job.Schedule(); err != nil {
		t.Fatal(err)
	}
	if err := job.Tile([]int64{0}); err == nil || fmterr.IsInternal(err) {
		t.Errorf("Tile with a zero size: got error %v, want an invalid size error", err)
	}
	if got := job.State(); got != loopopt.ScheduleReady {
		t.Errorf("got state %s: want %s", got, loopopt.ScheduleReady)
	}
	if _, err := job.Lower(); err != nil {
		t.Fatal(err)
	}
	if got := job.State(); got != loopopt.Lowered {
		t.Errorf("got state %s: want %s", got, loopopt.Lowered)
	}
	if err := job.Close(); err != nil {
		t.Fatal(err)
	}
	if err := job.Extract(); !fmterr.IsInternal(err) {
		t.Errorf("Extract after Close: got error %v, want an internal error", err)
	}
}

func TestUnsupportedIsSentinel(t *testing.T) {
	checkNoLeak(t)
	a := ir.NewArena()
	fn := irhelper.Func("macro", a.Macro("barrier"))
	job, err := loopopt.NewJob(fn, loopopt.Config{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := job.Close(); err != nil {
			t.Error(err)
		}
	}()
	if err := job.Extract(); !errors.Is(err, loopopt.ErrUnsupported) {
		t.Errorf("got error %v: want %v", err, loopopt.ErrUnsupported)
	}
}
