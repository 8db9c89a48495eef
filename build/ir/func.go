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

package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// FuncDecl is a function declaration.
// Function declarations are immutable: passes return new declarations.
type FuncDecl struct {
	Name   string
	Params []VarID
	Result Type
	Body   Expr
}

// Arena returns the arena owning the function body and its variables.
func (f *FuncDecl) Arena() *Arena {
	return f.Body.Arena()
}

// WithBody returns a copy of the function declaration with a new body.
func (f *FuncDecl) WithBody(body Expr) *FuncDecl {
	return &FuncDecl{
		Name:   f.Name,
		Params: slices.Clone(f.Params),
		Result: f.Result,
		Body:   body,
	}
}

// ParamDecls returns the declarations of the parameters.
func (f *FuncDecl) ParamDecls() ([]*VarDecl, error) {
	decls := make([]*VarDecl, len(f.Params))
	for i, id := range f.Params {
		decl, err := f.Arena().Var(id)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %d of %s", i, f.Name)
		}
		decls[i] = decl
	}
	return decls, nil
}

// String representation of the function.
func (f *FuncDecl) String() string {
	var params []string
	for _, id := range f.Params {
		decl, err := f.Arena().Var(id)
		if err != nil {
			params = append(params, id.String())
			continue
		}
		params = append(params, decl.String())
	}
	result := ""
	if f.Result != nil && !IsStatement(f.Result) {
		result = " " + f.Result.String()
	}
	return fmt.Sprintf("func %s(%s)%s %s", f.Name, strings.Join(params, ", "), result, f.Body.String())
}
