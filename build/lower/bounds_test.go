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

package lower_test

import (
	"errors"
	"go/token"
	"strings"
	"testing"

	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/ir/irhelper"
	"github.com/gx-org/tlc/build/lower"
)

func static(lo, hi int64) lower.Range {
	return lower.Range{Lower: lower.Bound{Offset: lo}, Upper: lower.Bound{Offset: hi}}
}

func TestDeduceLoopBounds(t *testing.T) {
	f := newFixture()
	a := f.a
	i, j := f.ref(f.i), f.ref(f.j)
	tests := []struct {
		desc  string
		expr  ir.Expr
		index *ir.VarDecl
		want  lower.Range
	}{
		{
			desc:  "dot product",
			expr:  a.Sum(f.i.ID, a.Mul(f.sub(f.B, i), f.sub(f.C, i))),
			index: f.i,
			want:  static(0, 10),
		},
		{
			desc:  "shifted subscript",
			expr:  a.Sum(f.i.ID, f.sub(f.B, a.Add(i, a.Index(1)))),
			index: f.i,
			want:  static(-1, 9),
		},
		{
			desc:  "stencil",
			expr:  a.Sum(f.i.ID, a.Add(f.sub(f.B, i), f.sub(f.B, a.Add(i, a.Index(1))))),
			index: f.i,
			want:  static(0, 9),
		},
		{
			desc:  "centered stencil",
			expr:  a.Sum(f.i.ID, a.Add(f.sub(f.B, a.Binary(token.SUB, i, a.Index(1))), f.sub(f.C, a.Add(i, a.Index(1))))),
			index: f.i,
			want:  static(1, 9),
		},
		{
			desc:  "inner axis",
			expr:  a.Sum(f.j.ID, a.Mul(irhelper.Subscripts(a, f.ref(f.A), a.Index(0), j), f.sub(f.D, j))),
			index: f.j,
			want:  static(0, 20),
		},
		{
			desc:  "multi-index",
			expr:  a.Sum(f.j.ID, a.Subscript(f.ref(f.A), a.MultiIndex(a.Index(0), a.Binary(token.SUB, j, a.Index(2))))),
			index: f.j,
			want:  static(2, 22),
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			got, err := lower.DeduceLoopBounds(a, test.expr)
			if err != nil {
				t.Fatalf("%s: %v", test.expr, err)
			}
			if got != test.expr {
				t.Errorf("got %s, want the expression unchanged", got)
			}
			rng, ok := lower.IndexRange(test.index)
			if !ok {
				t.Fatalf("%s: no range for %s", test.expr, test.index.Name)
			}
			if !rng.Equal(test.want) {
				t.Errorf("%s: got range %s, want %s", test.expr, rng, test.want)
			}
		})
	}
}

func TestDeduceLoopBoundsPlaceholders(t *testing.T) {
	a := ir.NewArena()
	i := a.NewIndex("i")
	n := a.NewParam("n", ir.Int64Type(), ir.In)
	X := a.NewParam("X", ir.Tensor(ir.Float64Type(), ir.ParamAxis(n)), ir.In)
	Y := a.NewParam("Y", ir.Tensor(ir.Float64Type(), ir.ParamAxis(n)), ir.Out)
	ref := a.Ref(i.ID)
	body := a.Assign(a.Subscript(a.Ref(Y.ID), ref), a.Subscript(a.Ref(X.ID), ref))
	loop := a.ForAll(i.ID, a.Call(ir.LowerBound, ref), a.Call(ir.UpperBound, ref), body)
	got, err := lower.DeduceLoopBounds(a, loop)
	if err != nil {
		t.Fatal(err)
	}
	want := a.ForAll(i.ID, a.Index(0), a.Convert(ir.IndexType(), a.Ref(n.ID)), body)
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	rng, _ := lower.IndexRange(i)
	if rng.String() != "[0, n)" {
		t.Errorf("got range %s, want [0, n)", rng)
	}
}

func TestDeduceLoopBoundsParamStencil(t *testing.T) {
	a := ir.NewArena()
	i := a.NewIndex("i")
	n := a.NewParam("n", ir.Int64Type(), ir.In)
	X := a.NewParam("X", ir.Tensor(ir.Float64Type(), ir.ParamAxis(n)), ir.In)
	Y := a.NewParam("Y", ir.Tensor(ir.Float64Type(), ir.ParamAxis(n)), ir.Out)
	ref := a.Ref(i.ID)
	x := a.Ref(X.ID)
	body := a.Assign(a.Subscript(a.Ref(Y.ID), ref), a.Add(a.Subscript(x, ref), a.Subscript(x, a.Add(ref, a.Index(1)))))
	loop := a.For(i.ID, a.Call(ir.LowerBound, ref), a.Call(ir.UpperBound, ref), body)
	got, err := lower.DeduceLoopBounds(a, loop)
	if err != nil {
		t.Fatal(err)
	}
	upper := a.Binary(token.SUB, a.Convert(ir.IndexType(), a.Ref(n.ID)), a.Index(1))
	if want := a.For(i.ID, a.Index(0), upper, body); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	rng, _ := lower.IndexRange(i)
	if rng.String() != "[0, n-1)" {
		t.Errorf("got range %s, want [0, n-1)", rng)
	}
}

func TestDeduceLoopBoundsErrors(t *testing.T) {
	f := newFixture()
	a := f.a
	i := f.ref(f.i)
	short := irhelper.StaticTensor(a, "S", ir.In, ir.Float64Type(), 5)
	tests := []struct {
		desc string
		expr ir.Expr
		want string
	}{
		{
			desc: "mismatched ranges",
			expr: a.Sum(f.i.ID, a.Mul(f.sub(f.B, i), a.Subscript(a.Ref(short.ID), i))),
			want: "requires range [0, 5)",
		},
		{
			desc: "empty range",
			expr: a.Sum(f.i.ID, a.Add(f.sub(f.B, i), f.sub(f.C, a.Add(i, a.Index(10))))),
			want: "index i has an empty range [0, 0)",
		},
		{
			desc: "no constraint",
			expr: a.Sum(f.i.ID, a.Convert(ir.Float64Type(), i)),
			want: "no subscript constrains the range of index i",
		},
	}
	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			_, err := lower.DeduceLoopBounds(a, test.expr)
			if err == nil {
				t.Fatalf("%s: expected an error", test.expr)
			}
			var malformed *fmterr.MalformedError
			if !errors.As(err, &malformed) {
				t.Errorf("%s: got error %T, want a *fmterr.MalformedError", test.expr, err)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("%s: error %q does not contain %q", test.expr, err.Error(), test.want)
			}
		})
	}
}
