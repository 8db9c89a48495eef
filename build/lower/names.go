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
	"slices"

	"github.com/gx-org/tlc/base/uname"
	"github.com/gx-org/tlc/build/ir"
)

// namer returns unique variable names for a tree.
// The names of the variables referenced or bound in the tree are reserved,
// except for the variables which role is in free.
func namer(root ir.Expr, free ...ir.Role) *uname.Unique {
	names := uname.New()
	for e := range ir.Walk(root) {
		switch e.Kind() {
		case ir.VarRefNode, ir.IndexRefNode, ir.SumNode, ir.ForNode, ir.ForAllNode, ir.LocalDefNode:
			decl, err := e.Arena().Var(e.Var())
			if err != nil || slices.Contains(free, decl.Role) {
				continue
			}
			names.Reserve(decl.Name)
		}
	}
	return names
}
