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
)

// LowerAbstractIndices replaces abstract indices by new concrete indices.
// The ranges of the new indices are deduced later, from their uses, by DeduceLoopBounds.
func LowerAbstractIndices(a *ir.Arena, root ir.Expr) (ir.Expr, error) {
	var abstract []*ir.VarDecl
	for id := range ir.IndexSet(root).Items() {
		decl, err := a.Var(id)
		if err != nil {
			return root, fmterr.Internal(err)
		}
		if decl.Role == ir.AbstractIndex {
			abstract = append(abstract, decl)
		}
	}
	if len(abstract) == 0 {
		return root, nil
	}
	names := namer(root, ir.AbstractIndex)
	concrete := make(map[ir.VarID]ir.VarID, len(abstract))
	for _, decl := range abstract {
		concrete[decl.ID] = a.NewIndex(names.Name(decl.Name)).ID
	}
	return ir.Transform(root, func(e ir.Expr) ir.Expr {
		id, ok := concrete[e.Var()]
		if !ok {
			return e
		}
		switch e.Kind() {
		case ir.IndexRefNode:
			return a.Ref(id)
		case ir.SumNode, ir.ForNode, ir.ForAllNode:
			return e.WithVar(id)
		}
		return e
	}), nil
}
