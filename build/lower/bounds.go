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
	"fmt"
	"go/token"

	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/ir/annotations"
	"github.com/gx-org/tlc/build/ir/irkind"
	"github.com/gx-org/tlc/build/match"
	"github.com/hashicorp/go-set/v3"
)

type (
	// Bound is the value Param+Offset, or Offset if Param is invalid.
	Bound struct {
		Param ir.VarID
		// Name of the parameter, for printing.
		Name   string
		Offset int64
	}

	// Range of an index: [Lower, Upper).
	Range struct {
		Lower, Upper Bound
	}
)

// BoundsKey is the key of the range annotation set on index declarations by DeduceLoopBounds.
var BoundsKey = annotations.NewKey(Range{})

// IsStatic returns true if the bound does not depend on a parameter.
func (b Bound) IsStatic() bool {
	return !b.Param.IsValid()
}

// Add returns the bound shifted by an offset.
func (b Bound) Add(offset int64) Bound {
	b.Offset += offset
	return b
}

// Equal returns true if two bounds have the same value.
func (b Bound) Equal(other Bound) bool {
	return b.Param == other.Param && b.Offset == other.Offset
}

func (b Bound) String() string {
	switch {
	case b.IsStatic():
		return fmt.Sprint(b.Offset)
	case b.Offset == 0:
		return b.Name
	case b.Offset < 0:
		return fmt.Sprintf("%s-%d", b.Name, -b.Offset)
	}
	return fmt.Sprintf("%s+%d", b.Name, b.Offset)
}

// Expr returns the bound as an index expression.
func (b Bound) Expr(a *ir.Arena) ir.Expr {
	if b.IsStatic() {
		return a.Index(b.Offset)
	}
	param := a.Ref(b.Param)
	if param.Type().Kind() != irkind.Index {
		param = a.Convert(ir.IndexType(), param)
	}
	switch {
	case b.Offset > 0:
		return a.Add(param, a.Index(b.Offset))
	case b.Offset < 0:
		return a.Binary(token.SUB, param, a.Index(-b.Offset))
	}
	return param
}

// Equal returns true if two ranges have the same bounds.
func (r Range) Equal(other Range) bool {
	return r.Lower.Equal(other.Lower) && r.Upper.Equal(other.Upper)
}

// Intersect returns the values in both ranges.
// Lower bounds are static and upper bounds depend on the same parameter.
func (r Range) Intersect(other Range) Range {
	if other.Lower.Offset > r.Lower.Offset {
		r.Lower = other.Lower
	}
	if other.Upper.Offset < r.Upper.Offset {
		r.Upper = other.Upper
	}
	return r
}

// IsEmpty returns true if the range is known to contain no value.
func (r Range) IsEmpty() bool {
	return r.Lower.IsStatic() && r.Upper.IsStatic() && r.Upper.Offset <= r.Lower.Offset
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Lower, r.Upper)
}

// axisExtent returns the length of an axis.
func axisExtent(ax ir.Axis) Bound {
	if !ax.IsStatic() {
		return Bound{Param: ax.Param, Name: ax.Name}
	}
	return Bound{Offset: ax.Len}
}

func axisRange(ax ir.Axis, offset int64) Range {
	return Range{
		Lower: Bound{Offset: -offset},
		Upper: axisExtent(ax).Add(-offset),
	}
}

// affineIndex decomposes index expressions of the form i, i+c, c+i and i-c.
func affineIndex(e ir.Expr) (ir.VarID, int64, bool) {
	if e.Kind() == ir.IndexRefNode {
		return e.Var(), 0, true
	}
	if e.Kind() != ir.BinaryNode {
		return ir.VarID{}, 0, false
	}
	x, y := e.X(), e.Y()
	switch e.Op() {
	case token.ADD:
		if c, ok := y.Int(); ok && x.Kind() == ir.IndexRefNode {
			return x.Var(), c, true
		}
		if c, ok := x.Int(); ok && y.Kind() == ir.IndexRefNode {
			return y.Var(), c, true
		}
	case token.SUB:
		if c, ok := y.Int(); ok && x.Kind() == ir.IndexRefNode {
			return x.Var(), -c, true
		}
	}
	return ir.VarID{}, 0, false
}

type indexUse struct {
	subscript ir.Expr
	extent    Bound
	rng       Range
}

// indexUses returns the ranges required by every subscript of the tree for each index.
func indexUses(root ir.Expr) map[ir.VarID][]indexUse {
	uses := make(map[ir.VarID][]indexUse)
	var x, index ir.Expr
	subscript := match.Subscript(match.AnyBind(&x), match.AnyBind(&index))
	match.ForEach(root, subscript, func(s ir.Expr) {
		tensor, ok := x.Type().(*ir.TensorType)
		if !ok {
			return
		}
		indices := []ir.Expr{index}
		if _, isTuple := index.Type().(*ir.TupleType); isTuple && index.Kind() == ir.ConstructNode {
			indices = index.Children()
		}
		for axis, idx := range indices {
			if axis >= tensor.Rank() {
				break
			}
			id, offset, ok := affineIndex(idx)
			if !ok {
				continue
			}
			uses[id] = append(uses[id], indexUse{
				subscript: s,
				extent:    axisExtent(tensor.Axes[axis]),
				rng:       axisRange(tensor.Axes[axis], offset),
			})
		}
	})
	return uses
}

// boundedIndices returns the indices which range needs to be deduced,
// that is indices with placeholder bounds and indices of sums,
// with the node where they first appear.
func boundedIndices(root ir.Expr) (*set.TreeSet[ir.VarID], map[ir.VarID]ir.Expr) {
	ids := set.NewTreeSet[ir.VarID](ir.CompareVarID)
	sites := make(map[ir.VarID]ir.Expr)
	id := match.Var[ir.VarID]()
	placeholder := match.Or(
		match.Call(ir.LowerBound, match.IndexRef(id)),
		match.Call(ir.UpperBound, match.IndexRef(id)),
	)
	site := match.Or(placeholder, match.Sum(id, match.Any[ir.Expr]()))
	match.ForEach(root, site, func(e ir.Expr) {
		if ids.Insert(id.Value()) {
			sites[id.Value()] = e
		}
	})
	return ids, sites
}

// DeduceLoopBounds deduces the range of every index used by a placeholder
// bound or by a sum from the subscripts using the index.
//
// A subscript x[i+c] of an axis of length n requires i to be in [-c, n-c).
// All the subscripts using an index must subscript axes of the same length:
// the range of the index is the intersection of the ranges they require.
// The range of an index is stored in the BoundsKey annotation of its declaration
// and replaces the lower_bound and upper_bound placeholders.
func DeduceLoopBounds(a *ir.Arena, root ir.Expr) (ir.Expr, error) {
	ids, sites := boundedIndices(root)
	if ids.Empty() {
		return root, nil
	}
	uses := indexUses(root)
	ranges := make(map[ir.VarID]Range)
	var errs fmterr.Errors
	for id := range ids.Items() {
		decl, err := a.Var(id)
		if err != nil {
			errs.Append(fmterr.Internal(err))
			continue
		}
		idUses := uses[id]
		if len(idUses) == 0 {
			errs.Appendf(sites[id], "no subscript constrains the range of index %s", decl.Name)
			continue
		}
		first := idUses[0]
		rng := first.rng
		consistent := true
		for _, use := range idUses[1:] {
			if use.extent.Equal(first.extent) {
				rng = rng.Intersect(use.rng)
				continue
			}
			consistent = false
			errs.Appendf(use.subscript, "index %s requires range %s but %s requires range %s", decl.Name, use.rng, first.subscript, first.rng)
		}
		if !consistent {
			continue
		}
		if rng.IsEmpty() {
			errs.Appendf(sites[id], "index %s has an empty range %s", decl.Name, rng)
			continue
		}
		ranges[id] = rng
		annotations.Replace(decl, BoundsKey, rng)
	}
	if !errs.Empty() {
		return root, errs.ToError()
	}
	return ir.Transform(root, func(e ir.Expr) ir.Expr {
		if e.Kind() != ir.CallNode || e.NumChildren() != 1 || e.X().Kind() != ir.IndexRefNode {
			return e
		}
		rng, ok := ranges[e.X().Var()]
		if !ok {
			return e
		}
		switch e.Intrinsic() {
		case ir.LowerBound:
			return rng.Lower.Expr(a)
		case ir.UpperBound:
			return rng.Upper.Expr(a)
		}
		return e
	}), nil
}

// IndexRange returns the range of an index deduced by DeduceLoopBounds.
func IndexRange(decl *ir.VarDecl) (Range, bool) {
	return annotations.Lookup[Range](decl, BoundsKey)
}
