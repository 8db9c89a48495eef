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
	"github.com/gx-org/tlc/build/fmterr"
	"github.com/gx-org/tlc/build/ir"
	"github.com/gx-org/tlc/build/match"
)

// ExpandMultiIndices expands subscripts by a tuple of indices into nested subscripts:
//
//	A[(i, j)] -> A[i][j]
//
// The number of indices must be equal to the rank of the subscripted tensor.
func ExpandMultiIndices(a *ir.Arena, root ir.Expr) (ir.Expr, error) {
	var x, tuple ir.Expr
	site := match.Subscript(match.AnyBind(&x), match.And(
		match.MultiIndex(match.Any[[]ir.Expr]()),
		match.AnyBind(&tuple),
	))
	var errs fmterr.Errors
	expanded := ir.Transform(root, func(e ir.Expr) ir.Expr {
		if !match.Matches(site, e) {
			return e
		}
		tensor, ok := x.Type().(*ir.TensorType)
		if !ok {
			errs.Appendf(e, "cannot subscript %s of type %s with a multi-index", x, x.Type())
			return e
		}
		if tensor.Rank() != tuple.NumChildren() {
			errs.Appendf(e, "multi-index of %d indices used on a tensor of rank %d", tuple.NumChildren(), tensor.Rank())
			return e
		}
		r := x
		for _, index := range tuple.Children() {
			r = a.Subscript(r, index)
		}
		return r
	})
	if !errs.Empty() {
		return root, errs.ToError()
	}
	return expanded, nil
}
