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

// Package irhelper provides helper functions to build IR programmatically.
package irhelper

import "github.com/gx-org/tlc/build/ir"

// Subscripts returns x[i0][i1]...[in].
func Subscripts(a *ir.Arena, x ir.Expr, indices ...ir.Expr) ir.Expr {
	for _, index := range indices {
		x = a.Subscript(x, index)
	}
	return x
}

// Refs returns references to variables.
func Refs(a *ir.Arena, decls ...*ir.VarDecl) []ir.Expr {
	refs := make([]ir.Expr, len(decls))
	for i, decl := range decls {
		refs[i] = a.Ref(decl.ID)
	}
	return refs
}

// StaticTensor declares a tensor parameter with static axis lengths.
func StaticTensor(a *ir.Arena, name string, intent ir.Intent, elem ir.Type, lens ...int64) *ir.VarDecl {
	axes := make([]ir.Axis, len(lens))
	for i, n := range lens {
		axes[i] = ir.StaticAxis(n)
	}
	return a.NewParam(name, ir.Tensor(elem, axes...), intent)
}

// Func returns a function declaration.
func Func(name string, body ir.Expr, params ...*ir.VarDecl) *ir.FuncDecl {
	ids := make([]ir.VarID, len(params))
	for i, param := range params {
		ids[i] = param.ID
	}
	return &ir.FuncDecl{
		Name:   name,
		Params: ids,
		Result: body.Type(),
		Body:   body,
	}
}
